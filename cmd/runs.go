package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	runsLimit   int
	runsAllSite bool
	runsLogs    string
)

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show.")
	runsCmd.Flags().BoolVar(&runsAllSite, "all", false, "Show runs of every site, not only SCRAPE_SITE.")
	runsCmd.Flags().StringVar(&runsLogs, "logs", "", "Show the log lines of one run instead.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--limit n] [--all] [--logs <run id>]",
	Short: "Lists recent scrape runs from the run ledger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ledger, err := a.ledger()
		if err != nil {
			return err
		}

		if runsLogs != "" {
			logs, err := ledger.RunLogs(runsLogs)
			if err != nil {
				return err
			}
			t := newTable()
			t.AppendHeader(table.Row{"Time", "Level", "Message"})
			for _, entry := range logs {
				t.AppendRow(table.Row{entry.Timestamp.Format(time.DateTime), entry.Level, entry.Message})
			}
			t.Render()
			return nil
		}

		siteID := a.site.ID
		if runsAllSite {
			siteID = ""
		}
		runs, err := ledger.RecentRuns(siteID, runsLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Site", "Started", "Duration", "State", "Pages", "Listings", "Errors", "Message"})
		for _, r := range runs {
			duration := "-"
			if r.FinishedAt != nil {
				duration = r.Duration().Round(time.Second).String()
			}
			t.AppendRow(table.Row{r.ID, r.SiteID, r.StartedAt.Format(time.DateTime), duration, r.State,
				r.Pages, r.ListingsFound, r.ErrorsCount, r.ErrorMessage})
		}
		t.Render()
		return nil
	},
}
