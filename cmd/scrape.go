package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"homesweep/models"
	"homesweep/scraper"
)

var scrapeSync bool

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeSync, "sync", false, "Push the dataset to S3 after a successful run.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--sync]",
	Short: "Scrapes the configured search results and merges them into the local dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.scrape(cmd.Context())
		printRunResult(result)
		if err != nil {
			return err
		}

		if scrapeSync {
			results, err := a.sync(cmd.Context(), []string{a.cfg.Paths.Dataset})
			printSyncResults(results)
			return err
		}
		return nil
	},
}

func printRunResult(result scraper.RunResult) {
	t := newTable()
	t.AppendHeader(table.Row{"Run", "State", "Pages", "Listings", "Skipped", "Stopped by", "Dataset rows"})

	stoppedBy := result.Pagination.String()
	switch {
	case result.State == models.RunStateFailed:
		stoppedBy = "-"
	case result.PageCapReached:
		stoppedBy = "page cap"
	}
	rows := "-"
	if result.Merged {
		rows = fmt.Sprintf("%d (%d replaced)", result.Stats.Total, result.Stats.Replaced())
	}

	t.AppendRow(table.Row{result.RunID, result.State, result.Pages, result.Listings, result.ElementErrors, stoppedBy, rows})
	t.Render()
}
