package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"homesweep/scheduler"
)

var daemonRunNow bool

func init() {
	daemonCmd.Flags().BoolVar(&daemonRunNow, "now", false, "Run once immediately before waiting for the schedule.")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--now]",
	Short: "Scrapes and syncs on SCRAPE_CRON or SCRAPE_INTERVAL until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ledger, err := a.ledger(); err == nil {
			if last, err := ledger.LastRunTime(a.site.ID); err == nil && !last.IsZero() {
				a.logger.Info("last successful run", "site", a.site.ID, "started_at", last)
			}
		}

		job := func(ctx context.Context) error {
			if _, err := a.scrape(ctx); err != nil {
				return err
			}
			_, err := a.sync(ctx, []string{a.cfg.Paths.Dataset})
			return err
		}

		sched := scheduler.New(a.cfg.Scheduler, job, a.logger)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		if daemonRunNow {
			if err := sched.TriggerNow(ctx); err != nil {
				a.logger.Error("initial run failed", "error", err)
			}
		}

		a.logger.Info("daemon running, press Ctrl+C to stop")
		<-ctx.Done()

		a.logger.Info("shutting down")
		sched.Stop()
		return nil
	},
}
