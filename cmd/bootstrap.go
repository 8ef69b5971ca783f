package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"homesweep/scraper"
	"homesweep/session"
)

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Opens a visible browser on the target page and saves its cookies once you press Enter.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		browserCfg := a.cfg.Browser
		browserCfg.Headless = false
		browser := scraper.NewPlaywrightBrowser(a.site, browserCfg, a.logger)
		store := session.NewStore(a.cfg.Paths.Cookies)

		stdin := bufio.NewReader(os.Stdin)
		wait := func() error {
			_, err := stdin.ReadString('\n')
			return err
		}

		n, err := scraper.Bootstrap(cmd.Context(), browser, a.site.TargetURL, store, wait, a.logger)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d cookies to %s\n", n, store.Path())
		return nil
	},
}
