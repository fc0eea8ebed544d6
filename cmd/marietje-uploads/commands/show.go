package commands

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"marietje-uploads/internal/components/chrono"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/report"
	"marietje-uploads/internal/uploads"
	"marietje-uploads/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showFlags struct {
	db   string
	runs int64
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showFlags.db, "db", "", "Show the latest run saved in this history db instead of a report.")
	f.Int64Var(&showFlags.runs, "runs", 0, "With --db, list this many recent runs instead.")
	rootCmd.AddCommand(showCmd)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderRecords(out io.Writer, records []uploads.Record) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Uploader", "Artist", "Title"})
	for _, r := range report.Sorted(records) {
		t.AppendRow(table.Row{r.ID, r.Uploader, r.Artist, r.Title})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tracks", len(report.Index(records)))})
	t.Render()
}

func renderRuns(out io.Writer, runs []db.Run, clock chrono.API) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Run", "Source", "Origin", "Scraped at", "Tracks"})
	for _, r := range runs {
		scrapedAt := time.Unix(r.ScrapedAt, 0).In(clock.Location()).Format(time.DateTime)
		t.AppendRow(table.Row{r.ID, r.Source, r.Origin, scrapedAt, r.RecordCount})
	}
	t.Render()
}

var showCmd = &cobra.Command{
	Use:   "show [report] [--db <path>] [--runs <n>]",
	Short: "Shows the records of a report, or of the latest run in a history db, as a table.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showFlags.db == "" {
			path := cfg.Output
			if len(args) > 0 {
				path = args[0]
			}
			records, err := report.ReadFile(path)
			if err != nil {
				serviceutil.Fatal("failed to read report", err)
			}
			renderRecords(cmd.OutOrStdout(), records)
			return
		}

		store, clock, closeDb, err := openHistory(showFlags.db, true)
		if err != nil {
			serviceutil.Fatal("failed to open history db", err)
		}
		defer closeDb()

		if showFlags.runs > 0 {
			runs, err := store.Runs(cmd.Context(), showFlags.runs)
			if err != nil {
				serviceutil.Fatal("failed to list runs", err)
			}
			renderRuns(cmd.OutOrStdout(), runs, clock)
			return
		}

		run, records, err := store.Latest(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read latest run", err)
		}
		slog.Info("latest run", "id", run.ID, "source", run.Source, "origin", run.Origin)
		renderRecords(cmd.OutOrStdout(), records)
	},
}
