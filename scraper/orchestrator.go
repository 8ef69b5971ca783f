package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"homesweep/config"
	"homesweep/dataset"
	"homesweep/extract"
	"homesweep/models"
	"homesweep/session"
)

// TokenSource supplies the cookies captured by the bootstrap flow.
type TokenSource interface {
	Load() ([]session.Token, bool, error)
}

type DatasetSink interface {
	Merge(incoming []models.Listing) (dataset.MergeStats, error)
}

// RunRecorder persists runs and their log lines.
type RunRecorder interface {
	CreateRun(run *models.ScrapeRun) error
	UpdateRun(run *models.ScrapeRun) error
	Log(runID string, level models.LogLevel, message, siteID string) error
}

type RunResult struct {
	RunID         string
	State         models.RunState
	Pages         int
	Listings      int
	ElementErrors int
	// Pagination is how the page loop ended when it was not the page cap.
	Pagination     AdvanceResult
	PageCapReached bool
	Merged         bool
	Stats          dataset.MergeStats
}

type Orchestrator struct {
	site    *config.SiteConfig
	cfg     config.ScraperConfig
	browser Browser
	tokens  TokenSource
	sink    DatasetSink

	recorder RunRecorder
	pacer    Pacer
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrchestrator(site *config.SiteConfig, cfg config.ScraperConfig, browser Browser, tokens TokenSource, sink DatasetSink, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		site:    site,
		cfg:     cfg,
		browser: browser,
		tokens:  tokens,
		sink:    sink,
		pacer:   JitterPacer{},
		logger:  logger,
		now:     time.Now,
	}
}

func (o *Orchestrator) SetRecorder(r RunRecorder) {
	o.recorder = r
}

func (o *Orchestrator) SetPacer(p Pacer) {
	o.pacer = p
}

func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// run carries the per-run bookkeeping so Run itself reads as the state
// machine.
type run struct {
	o      *Orchestrator
	record *models.ScrapeRun
	result RunResult
	logger *slog.Logger
}

// Run performs one complete scrape: INIT, AUTHENTICATED, LISTING_PAGE and
// DONE, or FAILED on the first fatal fault. The browser session is always
// closed before Run returns. An empty batch is not an error.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	r := o.newRun()
	defer r.finish()

	page, err := o.browser.Open(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("open browser: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("close browser", "error", err)
		}
	}()

	if err := r.authenticate(ctx, page); err != nil {
		return r.fail(err)
	}
	r.transition(models.RunStateAuthenticated, "session ready")

	if err := page.WaitForListings(o.cfg.ListingTimeout); err != nil {
		if marker, ok := page.Challenge(); ok {
			return r.fail(fmt.Errorf("%w: %w (%s)", ErrNoListings, ErrChallenged, marker))
		}
		return r.fail(fmt.Errorf("%w: %v", ErrNoListings, err))
	}
	r.transition(models.RunStateListingPage, "listings visible")

	batch, err := r.collect(ctx, page)
	if err != nil {
		return r.fail(err)
	}

	if len(batch) == 0 {
		r.logger.Warn("no listings extracted, dataset left untouched")
		r.transition(models.RunStateDone, "completed with no listings")
		return r.result, nil
	}

	stats, err := o.sink.Merge(batch)
	if err != nil {
		return r.fail(fmt.Errorf("merge dataset: %w", err))
	}
	r.result.Merged = true
	r.result.Stats = stats

	r.transition(models.RunStateDone, fmt.Sprintf("completed: %d listings over %d pages, dataset now %d rows",
		r.result.Listings, r.result.Pages, stats.Total))
	return r.result, nil
}

func (o *Orchestrator) newRun() *run {
	record := &models.ScrapeRun{
		ID:        uuid.NewString(),
		SiteID:    o.site.ID,
		StartedAt: o.now(),
		State:     models.RunStateInit,
	}

	r := &run{
		o:      o,
		record: record,
		result: RunResult{RunID: record.ID, State: models.RunStateInit},
		logger: o.logger.With("run_id", record.ID, "site", o.site.ID),
	}

	if o.recorder != nil {
		if err := o.recorder.CreateRun(record); err != nil {
			r.logger.Warn("failed to record run", "error", err)
		}
	}
	r.log(models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", o.site.Name))
	return r
}

func (r *run) authenticate(ctx context.Context, page Page) error {
	o := r.o
	settle := Fixed(o.cfg.SettleDelay)

	if err := page.Navigate(o.site.TargetURL); err != nil {
		return fmt.Errorf("navigate to %s: %w", o.site.TargetURL, err)
	}
	if err := o.pacer.Pause(ctx, settle); err != nil {
		return err
	}

	tokens, found, err := o.tokens.Load()
	if err != nil {
		return fmt.Errorf("load session tokens: %w", err)
	}
	if !found {
		r.log(models.LogLevelWarn, "No session tokens found, continuing unauthenticated")
		return nil
	}

	if err := page.AddTokens(tokens); err != nil {
		return fmt.Errorf("apply session tokens: %w", err)
	}
	if err := page.Reload(); err != nil {
		return fmt.Errorf("reload with session: %w", err)
	}
	r.logger.Info("session tokens applied", "count", len(tokens))
	return o.pacer.Pause(ctx, settle)
}

// collect walks result pages until the page cap or until Advance stops.
func (r *run) collect(ctx context.Context, page Page) ([]models.Listing, error) {
	o := r.o
	scrollPause := Window{Min: o.cfg.ScrollDelayMin, Max: o.cfg.ScrollDelayMax}
	pagePause := Window{Min: o.cfg.PageDelayMin, Max: o.cfg.PageDelayMax}

	var batch []models.Listing
	for pageNum := 1; ; pageNum++ {
		r.result.Pages = pageNum
		r.record.Pages = pageNum
		logger := r.logger.With("page", pageNum)

		if _, err := Discover(ctx, page, o.pacer, scrollPause, o.cfg.MaxScrolls, logger); err != nil {
			return batch, fmt.Errorf("discover page %d: %w", pageNum, err)
		}

		elements, err := page.Listings()
		if err != nil {
			return batch, fmt.Errorf("enumerate listings on page %d: %w", pageNum, err)
		}

		found := 0
		for i, el := range elements {
			listing, err := r.extract(el)
			if err != nil {
				r.result.ElementErrors++
				r.record.ErrorsCount++
				r.log(models.LogLevelError, fmt.Sprintf("Page %d listing %d: %v", pageNum, i, err))
				continue
			}
			batch = append(batch, listing)
			found++
		}

		r.result.Listings = len(batch)
		r.record.ListingsFound = len(batch)
		r.log(models.LogLevelInfo, fmt.Sprintf("Page %d: %d listings (total: %d)", pageNum, found, len(batch)))

		if pageNum >= o.cfg.MaxPages {
			r.result.PageCapReached = true
			logger.Info("page limit reached", "max_pages", o.cfg.MaxPages)
			return batch, nil
		}

		result := Advance(ctx, page, o.pacer, pagePause, logger)
		if result != Advanced {
			r.result.Pagination = result
			return batch, nil
		}
	}
}

func (r *run) extract(el Element) (models.Listing, error) {
	html, err := el.HTML()
	if err != nil {
		return models.Listing{}, fmt.Errorf("read card: %w", err)
	}
	listing, err := extract.ParseCard(html, r.o.site.Card)
	if err != nil {
		return models.Listing{}, err
	}
	listing.ScrapedAt = r.o.now().Truncate(time.Second)
	return listing, nil
}

func (r *run) transition(state models.RunState, message string) {
	r.result.State = state
	r.record.State = state

	level := models.LogLevelInfo
	if state == models.RunStateFailed {
		level = models.LogLevelError
	}
	r.log(level, fmt.Sprintf("[%s] %s", state, message))

	if r.o.recorder != nil {
		if err := r.o.recorder.UpdateRun(r.record); err != nil {
			r.logger.Warn("failed to update run", "error", err)
		}
	}
}

func (r *run) fail(err error) (RunResult, error) {
	r.record.ErrorMessage = err.Error()
	r.record.ErrorsCount++
	r.transition(models.RunStateFailed, err.Error())
	return r.result, err
}

func (r *run) finish() {
	now := r.o.now()
	r.record.FinishedAt = &now
	if r.o.recorder != nil {
		if err := r.o.recorder.UpdateRun(r.record); err != nil {
			r.logger.Warn("failed to finalize run", "error", err)
		}
	}
}

func (r *run) log(level models.LogLevel, message string) {
	r.logger.Log(context.Background(), level.Slog(), message)
	if r.o.recorder != nil {
		if err := r.o.recorder.Log(r.record.ID, level, message, r.record.SiteID); err != nil {
			r.logger.Debug("failed to record log line", "error", err)
		}
	}
}
