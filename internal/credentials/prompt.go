package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptProvider asks for the username and password interactively, the
// password is not echoed when the input is a terminal.
type PromptProvider struct {
	In  io.Reader
	Out io.Writer
}

func NewPromptProvider() PromptProvider {
	return PromptProvider{In: os.Stdin, Out: os.Stderr}
}

func (p PromptProvider) terminalFd() (int, bool) {
	f, ok := p.In.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p PromptProvider) Credential(ctx context.Context) (Credential, error) {
	reader := bufio.NewReader(p.In)

	fmt.Fprint(p.Out, "Username: ")
	username, err := readLine(reader)
	if errors.Is(err, io.EOF) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, fmt.Errorf("prompt username: %w", err)
	}

	fmt.Fprint(p.Out, "Password: ")
	var password string
	if fd, ok := p.terminalFd(); ok {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return Credential{}, fmt.Errorf("prompt password: %w", err)
		}
		password = string(raw)
	} else {
		password, err = readLine(reader)
		if errors.Is(err, io.EOF) {
			return Credential{}, ErrNoCredential
		}
		if err != nil {
			return Credential{}, fmt.Errorf("prompt password: %w", err)
		}
	}

	cred := Credential{
		Username: strings.TrimSpace(username),
		Password: password,
	}
	if cred.Empty() {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}
