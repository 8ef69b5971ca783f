package scraper

import (
	"context"
	"fmt"
	"log/slog"
)

// Discover scrolls until the number of rendered listings stops growing, or
// until maxRounds scrolls have been made, and returns the last count seen.
// The previous count starts at zero, so a page that renders nothing stops
// after one round.
func Discover(ctx context.Context, page Page, pacer Pacer, pause Window, maxRounds int, logger *slog.Logger) (int, error) {
	prev := 0
	for round := 1; round <= maxRounds; round++ {
		if err := page.ScrollToBottom(); err != nil {
			return prev, fmt.Errorf("scroll round %d: %w", round, err)
		}
		if err := pacer.Pause(ctx, pause); err != nil {
			return prev, err
		}

		count, err := page.CountListings()
		if err != nil {
			return prev, fmt.Errorf("count listings round %d: %w", round, err)
		}
		logger.Debug("scrolled", "round", round, "listings", count)

		if count <= prev {
			logger.Info("listings stable", "rounds", round, "listings", count)
			return count, nil
		}
		prev = count
	}

	logger.Info("scroll limit reached", "rounds", maxRounds, "listings", prev)
	return prev, nil
}
