package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/telemetry"

	"github.com/joho/godotenv"
)

const (
	UsernameEnv = "MARIETJE_USERNAME"
	PasswordEnv = "MARIETJE_PASSWORD"
)

// EnvProvider reads the credential from MARIETJE_USERNAME and
// MARIETJE_PASSWORD.
type EnvProvider struct {
	// DotEnv files are loaded into the environment before reading it,
	// variables that are already set are not overridden. Missing files are
	// ignored.
	DotEnv []string

	tel telemetry.API
}

func NewEnvProvider(tel telemetry.API, dotenv ...string) EnvProvider {
	assert.NotNil(tel)
	return EnvProvider{
		DotEnv: dotenv,
		tel:    telemetry.NewScopedAPI("credentials", tel),
	}
}

func (p EnvProvider) Credential(ctx context.Context) (Credential, error) {
	for _, path := range p.DotEnv {
		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			p.tel.ReportBroken(report_provider_env, fmt.Errorf("load %s: %w", path, err))
			return Credential{}, fmt.Errorf("load %s: %w", path, err)
		}
		p.tel.ReportDebug("loaded dotenv file", path)
	}

	cred := Credential{
		Username: os.Getenv(UsernameEnv),
		Password: os.Getenv(PasswordEnv),
	}
	if cred.Empty() {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}
