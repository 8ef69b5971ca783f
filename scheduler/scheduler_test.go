package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"homesweep/config"
	"homesweep/logging"
)

func TestScheduler_Interval(t *testing.T) {
	var runs atomic.Int32
	job := func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}

	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, job, logging.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if runs.Load() < 2 {
		t.Fatalf("expected at least 2 runs, got %d", runs.Load())
	}
}

func TestScheduler_RunsNeverOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	job := func(ctx context.Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return errors.New("scrape failed")
	}

	s := New(config.SchedulerConfig{Interval: time.Millisecond}, job, logging.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	go s.TriggerNow(context.Background())
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if maxActive.Load() != 1 {
		t.Fatalf("expected runs to be serialized, saw %d at once", maxActive.Load())
	}
}

func TestScheduler_Config(t *testing.T) {
	noop := func(ctx context.Context) error { return nil }

	s := New(config.SchedulerConfig{Cron: "not a cron"}, noop, logging.Discard())
	if err := s.Start(context.Background()); err == nil {
		t.Errorf("expected invalid cron expression to fail")
	}

	s = New(config.SchedulerConfig{}, noop, logging.Discard())
	if err := s.Start(context.Background()); err == nil {
		t.Errorf("expected missing schedule to fail")
	}

	s = New(config.SchedulerConfig{Cron: "*/5 * * * *"}, noop, logging.Discard())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	s.Stop()
}
