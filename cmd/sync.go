package cmd

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [file.csv ...]",
	Short: "Merges each CSV with its copy in the bucket and uploads the result. Defaults to the dataset file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		paths := args
		if len(paths) == 0 {
			paths = []string{a.cfg.Paths.Dataset}
		}

		results, err := a.sync(cmd.Context(), paths)
		printSyncResults(results)
		return err
	},
}

func printSyncResults(results map[string]bool) {
	if len(results) == 0 {
		return
	}

	paths := make([]string, 0, len(results))
	for p := range results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	t := newTable()
	t.AppendHeader(table.Row{"File", "Synced"})
	for _, p := range paths {
		status := "ok"
		if !results[p] {
			status = "FAILED"
		}
		t.AppendRow(table.Row{p, status})
	}
	t.Render()
}
