package commands

import (
	"fmt"

	"marietje-uploads/internal/service"
	"marietje-uploads/internal/uploads"
	"marietje-uploads/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var extractFlags struct {
	output string
	parser uploads.Strategy
	db     string
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.output, "output", "o", "", "The report to write (default from config, uploader_info.txt).")
	f.Var(&extractFlags.parser, "parser", "How to read the snapshot, regex or table (default table).")
	f.StringVar(&extractFlags.db, "db", "", "A sqlite path or libsql url to also save the run to.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [snapshot.html] [--output <report>] [--parser table|regex] [--db <path>]",
	Short: "Writes the report from a saved copy of the requests page.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		snapshot := cfg.Snapshot
		if len(args) > 0 {
			snapshot = args[0]
		}
		// saved pages are parsed as a document unless asked otherwise
		strategy := extractFlags.parser
		if strategy == "" {
			strategy = uploads.StrategyTable
		}

		hist, closeDb, err := historyFor(orDefault(extractFlags.db, cfg.Db))
		if err != nil {
			serviceutil.Fatal("failed to open history db", err)
		}
		defer closeDb()

		svc := service.NewService(tel, hist)
		result, err := svc.Extract(cmd.Context(), service.ExtractRequest{
			Snapshot:   snapshot,
			Strategy:   strategy,
			TableClass: cfg.TableClass,
			Output:     orDefault(extractFlags.output, cfg.Output),
		})
		if err != nil {
			serviceutil.Fatal("failed to extract uploads", err)
		}

		logResult(result)
		fmt.Println("Done refreshing uploads.")
	},
}
