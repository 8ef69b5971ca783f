package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"homesweep/config"
)

// Job is one scheduled unit of work, typically a scrape followed by a sync.
type Job func(ctx context.Context) error

type Scheduler struct {
	cfg    config.SchedulerConfig
	job    Job
	logger *slog.Logger

	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(cfg config.SchedulerConfig, job Job, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cfg:    cfg,
		job:    job,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		stopCh: make(chan struct{}),
	}
}

// Start schedules the job on the cron expression when one is configured,
// otherwise on the fixed interval. Runs never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		s.logger.Info("starting scheduler", "cron", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.run(ctx, "cron")
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Interval <= 0 {
		return errors.New("no schedule configured: set SCRAPE_CRON or SCRAPE_INTERVAL")
	}

	s.logger.Info("starting scheduler", "interval", s.cfg.Interval)
	s.ticker = time.NewTicker(s.cfg.Interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ticker.C:
				s.run(ctx, "interval")
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop waits for a run in progress to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.wg.Wait()
}

// TriggerNow runs the job immediately on the caller's goroutine.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job(ctx)
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "trigger", trigger, "error", err, "elapsed", time.Since(start).Round(time.Second))
		return
	}
	s.logger.Info("scheduled run finished", "trigger", trigger, "elapsed", time.Since(start).Round(time.Second))
}
