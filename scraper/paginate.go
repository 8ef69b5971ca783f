package scraper

import (
	"context"
	"errors"
	"log/slog"
)

type AdvanceResult int

const (
	Advanced AdvanceResult = iota
	Exhausted
	TransientFailure
)

func (r AdvanceResult) String() string {
	switch r {
	case Advanced:
		return "advanced"
	case Exhausted:
		return "exhausted"
	case TransientFailure:
		return "transient_failure"
	}
	return "unknown"
}

// Advance moves to the next result page. A missing or disabled control is
// Exhausted; any other click failure, or cancellation during the pause that
// follows a click, is TransientFailure.
func Advance(ctx context.Context, page Page, pacer Pacer, pause Window, logger *slog.Logger) AdvanceResult {
	if err := page.NextPage(); err != nil {
		if errors.Is(err, ErrNoNextPage) {
			logger.Info("no next page")
			return Exhausted
		}
		logger.Warn("next page failed", "error", err)
		return TransientFailure
	}

	if err := pacer.Pause(ctx, pause); err != nil {
		logger.Warn("interrupted after next page", "error", err)
		return TransientFailure
	}
	return Advanced
}
