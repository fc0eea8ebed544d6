package commands

import (
	"fmt"
	"io"
	"strings"

	"marietje-uploads/internal/report"
	"marietje-uploads/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "The number of uploaders to list, 0 lists all of them.")
	rootCmd.AddCommand(searchCmd)
}

func renderMatches(out io.Writer, matches []report.Match) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Uploader", "Similarity", "Tracks"})
	for _, m := range matches {
		tracks := make([]string, len(m.Tracks))
		for i, id := range m.Tracks {
			tracks[i] = fmt.Sprint(id)
		}
		t.AppendRow(table.Row{
			m.Uploader,
			fmt.Sprintf("%.2f", m.Similarity),
			strings.Join(tracks, ", "),
		})
	}
	t.Render()
}

var searchCmd = &cobra.Command{
	Use:   "search <name> [report] [--limit <n>]",
	Short: "Lists the uploaders in a report that look most like a name, with their tracks.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.Output
		if len(args) > 1 {
			path = args[1]
		}
		records, err := report.ReadFile(path)
		if err != nil {
			serviceutil.Fatal("failed to read report", err)
		}
		renderMatches(cmd.OutOrStdout(), report.Search(records, args[0], searchLimit))
	},
}
