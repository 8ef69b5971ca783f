package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"homesweep/session"
)

type TokenSaver interface {
	Save(tokens []session.Token) error
}

// Bootstrap opens the target in a browser the operator can see, blocks in
// wait until they have signed in or cleared any challenge, then saves every
// cookie of the browser context. It returns the number of cookies saved.
func Bootstrap(ctx context.Context, browser Browser, targetURL string, store TokenSaver, wait func() error, logger *slog.Logger) (int, error) {
	page, err := browser.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("close browser", "error", err)
		}
	}()

	if err := page.Navigate(targetURL); err != nil {
		return 0, fmt.Errorf("navigate to %s: %w", targetURL, err)
	}

	logger.Info("complete any login or verification in the browser window, then press Enter")
	if err := wait(); err != nil {
		return 0, fmt.Errorf("wait for operator: %w", err)
	}

	tokens, err := page.Tokens()
	if err != nil {
		return 0, fmt.Errorf("read cookies: %w", err)
	}
	if err := store.Save(tokens); err != nil {
		return 0, err
	}

	logger.Info("session tokens saved", "count", len(tokens))
	return len(tokens), nil
}
