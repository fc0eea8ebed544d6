package commands

import (
	"context"
	"database/sql"

	"marietje-uploads/internal/components/chrono"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/history"
	"marietje-uploads/internal/service"
	"marietje-uploads/pkg/sqliteutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg Config
	tel telemetry.API = telemetry.SlogAPI{}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "marietje.json5", "The config file, marietje.local.json5 overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")
}

var rootCmd = &cobra.Command{
	Use:   "marietje-uploads",
	Short: "marietje-uploads finds out who uploaded which tracks to PHPMarietje.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		cfg, err = loadConfig(configPath)
		return err
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openHistory opens the history database at `path`, which is a sqlite
// path or a libsql url. Writers create and migrate it, readers only open a
// database that already exists.
func openHistory(path string, readOnly bool) (history.Store, chrono.API, func(), error) {
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return history.Store{}, nil, nil, err
	}

	var database *sql.DB
	if readOnly {
		database, err = sqliteutil.OpenExistingDB(path)
	} else {
		database, err = sqliteutil.OpenAndMigrateDB(db.Schema, path)
	}
	if err != nil {
		return history.Store{}, nil, nil, err
	}
	store := history.NewStore(database, clock, tel)
	return store, clock, func() { database.Close() }, nil
}

// historyFor returns the history to save runs to, nil when `path` is empty.
func historyFor(path string) (service.HistoryAPI, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	store, _, closeDb, err := openHistory(path, false)
	if err != nil {
		return nil, nil, err
	}
	return store, closeDb, nil
}
