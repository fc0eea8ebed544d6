// Package credentials acquires the username/password pair used to log
// into marietje. Credentials only live in memory for the duration of a
// run, nothing in this package writes them anywhere.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

const (
	report_provider_env  = "provider.env"
	report_provider_file = "provider.file"
)

// ErrNoCredential is returned by a Provider that has nothing to offer, a
// Chain moves on to the next provider when it sees it.
var ErrNoCredential = errors.New("no credential available")

type Credential struct {
	Username string
	Password string
}

// String never includes the password so a Credential can safely end up
// in logs.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Username: %q}", c.Username)
}

func (c Credential) GoString() string {
	return c.String()
}

func (c Credential) Empty() bool {
	return c.Username == "" || c.Password == ""
}

type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// Static always returns the same credential, or ErrNoCredential if it is
// incomplete.
type Static Credential

func (s Static) Credential(ctx context.Context) (Credential, error) {
	c := Credential(s)
	if c.Empty() {
		return Credential{}, ErrNoCredential
	}
	return c, nil
}

// Chain asks each provider in order and returns the first credential it
// gets. Errors other than ErrNoCredential stop the chain.
type Chain []Provider

func (c Chain) Credential(ctx context.Context) (Credential, error) {
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return Credential{}, err
		}
		cred, err := p.Credential(ctx)
		if errors.Is(err, ErrNoCredential) {
			continue
		}
		if err != nil {
			return Credential{}, err
		}
		return cred, nil
	}
	return Credential{}, ErrNoCredential
}
