package commands

import (
	"time"

	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/scrapers/marietje"
	"marietje-uploads/internal/uploads"
	"marietje-uploads/pkg/configutil"
)

type Config struct {
	BaseUrl       string `json:"base_url"`
	LoginPath     string `json:"login_path"`
	RequestsPath  string `json:"requests_path"`
	FailureMarker string `json:"failure_marker"`

	TimeoutSeconds   int     `json:"timeout_seconds"`
	RateLimit        float64 `json:"rate_limit"`
	CloudflareBypass bool    `json:"cloudflare_bypass"`

	// Parser is the default extraction strategy, "regex" or "table"
	Parser     string `json:"parser"`
	TableClass string `json:"table_class"`

	Output          string `json:"output"`
	Snapshot        string `json:"snapshot"`
	CredentialsFile string `json:"credentials_file"`
	DotEnv          string `json:"dotenv"`
	// Db is a sqlite path or libsql url, empty disables history
	Db string `json:"db"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:         marietje.DefaultBaseUrl,
		LoginPath:       marietje.DefaultLoginPath,
		RequestsPath:    marietje.DefaultRequestsPath,
		FailureMarker:   marietje.DefaultFailureMarker,
		TimeoutSeconds:  30,
		RateLimit:       2,
		Parser:          string(uploads.StrategyRegex),
		TableClass:      uploads.DefaultTableClass,
		Output:          "uploader_info.txt",
		Snapshot:        "PHPMarietje.html",
		CredentialsFile: "username",
		DotEnv:          ".env",
	}
}

func loadConfig(path string) (Config, error) {
	return configutil.ReadConfigOr(path, defaultConfig())
}

func (c Config) clientOptions(dump telemetry.MessageOutput) marietje.ClientOptions {
	return marietje.ClientOptions{
		BaseUrl:          c.BaseUrl,
		LoginPath:        c.LoginPath,
		RequestsPath:     c.RequestsPath,
		FailureMarker:    c.FailureMarker,
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		RateLimit:        c.RateLimit,
		CloudflareBypass: c.CloudflareBypass,
		Dump:             dump,
	}
}
