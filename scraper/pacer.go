package scraper

import (
	"context"
	"math/rand"
	"time"
)

// Window is an inclusive-exclusive range [Min, Max) to pick a pause from.
// Min == Max is a fixed pause.
type Window struct {
	Min time.Duration
	Max time.Duration
}

func Fixed(d time.Duration) Window {
	return Window{Min: d, Max: d}
}

type Pacer interface {
	Pause(ctx context.Context, w Window) error
}

// JitterPacer sleeps for a uniformly random duration inside the window.
type JitterPacer struct{}

func (JitterPacer) Pause(ctx context.Context, w Window) error {
	return sleep(ctx, jitter(w))
}

func jitter(w Window) time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int63n(int64(w.Max-w.Min)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoPacer never waits. It still honours cancellation.
type NoPacer struct{}

func (NoPacer) Pause(ctx context.Context, _ Window) error {
	return ctx.Err()
}
