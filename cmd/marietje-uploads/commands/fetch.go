package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/credentials"
	"marietje-uploads/internal/scrapers/marietje"
	"marietje-uploads/internal/service"
	"marietje-uploads/internal/uploads"
	"marietje-uploads/pkg/restyutil"
	"marietje-uploads/pkg/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const loginFailedMessage = "Could not refresh uploads, wrong username or password."

var fetchFlags struct {
	output      string
	parser      uploads.Strategy
	db          string
	credentials string
	noPrompt    bool
	dumpHttp    string
}

func init() {
	f := fetchCmd.Flags()
	f.StringVarP(&fetchFlags.output, "output", "o", "", "The report to write (default from config, uploader_info.txt).")
	f.Var(&fetchFlags.parser, "parser", "How to read the requests page, regex or table (default from config, regex).")
	f.StringVar(&fetchFlags.db, "db", "", "A sqlite path or libsql url to also save the run to.")
	f.StringVar(&fetchFlags.credentials, "credentials", "", "A file with the username on the first line and the password on the second (default from config, username).")
	f.BoolVar(&fetchFlags.noPrompt, "no-prompt", false, "Fail instead of asking for a username and password.")
	f.StringVar(&fetchFlags.dumpHttp, "dump-http", "", "A directory to write every HTTP exchange to, it is cleared first.")
	rootCmd.AddCommand(fetchCmd)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func resolveStrategy(flag uploads.Strategy) uploads.Strategy {
	if flag != "" {
		return flag
	}
	strategy, err := uploads.ParseStrategy(cfg.Parser)
	if err != nil {
		serviceutil.Fatal("invalid parser in config", err)
	}
	return strategy
}

func credentialChain(path string, noPrompt bool) credentials.Chain {
	var dotenv []string
	if cfg.DotEnv != "" {
		dotenv = append(dotenv, cfg.DotEnv)
	}
	chain := credentials.Chain{
		credentials.NewEnvProvider(tel, dotenv...),
		credentials.NewFileProvider(tel, path),
	}
	if !noPrompt {
		chain = append(chain, credentials.NewPromptProvider())
	}
	return chain
}

func logResult(result service.Result) {
	slog.Info(
		"wrote report",
		"path", result.Output,
		"records", len(result.Records),
		"size", humanize.Bytes(uint64(result.Written)),
	)
	if result.Run != nil {
		slog.Info("saved run", "id", result.Run.ID)
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--output <report>] [--parser regex|table] [--db <path>] [--credentials <file>] [--no-prompt] [--dump-http <dir>]",
	Short: "Logs in to PHPMarietje and writes the uploader of every requested track to the report.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var dump telemetry.MessageOutput
		if fetchFlags.dumpHttp != "" {
			out, err := restyutil.NewFilesystemOutput(fetchFlags.dumpHttp)
			if err != nil {
				serviceutil.Fatal("failed to create http dump", err)
			}
			dump = out
		}

		hist, closeDb, err := historyFor(orDefault(fetchFlags.db, cfg.Db))
		if err != nil {
			serviceutil.Fatal("failed to open history db", err)
		}
		defer closeDb()

		svc := service.NewService(tel, hist)
		result, err := svc.Fetch(cmd.Context(), service.FetchRequest{
			Credentials: credentialChain(
				orDefault(fetchFlags.credentials, cfg.CredentialsFile),
				fetchFlags.noPrompt,
			),
			Client:     cfg.clientOptions(dump),
			Strategy:   resolveStrategy(fetchFlags.parser),
			TableClass: cfg.TableClass,
			Output:     orDefault(fetchFlags.output, cfg.Output),
		})
		if errors.Is(err, marietje.ErrLoginFailed) {
			serviceutil.Exit(loginFailedMessage)
		}
		if errors.Is(err, credentials.ErrNoCredential) {
			serviceutil.Exit(fmt.Sprintf(
				"No username and password, set %s and %s or write them to %s.",
				credentials.UsernameEnv,
				credentials.PasswordEnv,
				orDefault(fetchFlags.credentials, cfg.CredentialsFile),
			))
		}
		if err != nil {
			serviceutil.Fatal("failed to refresh uploads", err)
		}

		logResult(result)
		fmt.Println("Done refreshing uploads.")
	},
}
