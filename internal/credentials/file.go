package credentials

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/telemetry"
)

// FileProvider reads the legacy credential file: the username on the
// first line, the password on the second.
type FileProvider struct {
	Path string

	tel telemetry.API
}

func NewFileProvider(tel telemetry.API, path string) FileProvider {
	assert.NotNil(tel)
	return FileProvider{
		Path: path,
		tel:  telemetry.NewScopedAPI("credentials", tel),
	}
}

func (p FileProvider) Credential(ctx context.Context) (Credential, error) {
	f, err := os.Open(p.Path)
	if os.IsNotExist(err) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err == nil && info.Mode().Perm()&0077 != 0 {
		p.tel.ReportWarning(
			report_provider_file,
			fmt.Errorf("%s is readable by other users (mode %s)", p.Path, info.Mode().Perm()),
		)
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Credential{}, fmt.Errorf("read credential file: %w", err)
	}

	if len(lines) < 2 {
		p.tel.ReportDebug("credential file has fewer than two lines", p.Path)
		return Credential{}, ErrNoCredential
	}
	cred := Credential{Username: lines[0], Password: lines[1]}
	if cred.Empty() {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}
