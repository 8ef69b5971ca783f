package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"homesweep/config"
	"homesweep/dataset"
	"homesweep/logging"
	"homesweep/mirror"
	"homesweep/scraper"
	"homesweep/session"
	"homesweep/storage"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	site    *config.SiteConfig
	logger  *slog.Logger
	closers []io.Closer

	runLedger *storage.RunLedger
}

func newApp() (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	site, err := cfg.Site()
	if err != nil {
		return nil, err
	}

	logger, logFile, err := logging.Setup(cfg.Paths.Log, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}

	return &app{
		cfg:     cfg,
		site:    site,
		logger:  logger,
		closers: []io.Closer{logFile},
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// ledger opens the run ledger on first use and reuses it afterwards.
func (a *app) ledger() (*storage.RunLedger, error) {
	if a.runLedger != nil {
		return a.runLedger, nil
	}
	ledger, err := storage.NewRunLedger(a.cfg.Paths.DB)
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	a.runLedger = ledger
	a.closers = append(a.closers, ledger)
	return ledger, nil
}

// scrape runs one orchestrated pass over the configured site. The returned
// error is non-nil only when the run ended FAILED.
func (a *app) scrape(ctx context.Context) (scraper.RunResult, error) {
	browser := scraper.NewPlaywrightBrowser(a.site, a.cfg.Browser, a.logger)
	tokens := session.NewStore(a.cfg.Paths.Cookies)
	sink := dataset.NewFile(a.cfg.Paths.Dataset, a.logger)

	orch := scraper.NewOrchestrator(a.site, a.cfg.Scraper, browser, tokens, sink, a.logger)
	if ledger, err := a.ledger(); err != nil {
		a.logger.Warn("run history disabled", "error", err)
	} else {
		orch.SetRecorder(ledger)
	}

	return orch.Run(ctx)
}

// sync pushes each path to the bucket and, when DATABASE_URL is set, to
// Postgres. It fails if any path could not be pushed.
func (a *app) sync(ctx context.Context, paths []string) (map[string]bool, error) {
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	syncer := mirror.NewSyncer(store, a.logger.With("bucket", store.Bucket()))
	if a.cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresMirror(ctx, a.cfg.DatabaseURL)
		if err != nil {
			a.logger.Warn("postgres mirror disabled", "error", err)
		} else {
			defer pg.Close()
			syncer.SetPublisher(pg)
		}
	}

	results := syncer.PushAll(ctx, paths)
	failed := 0
	for _, ok := range results {
		if !ok {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d files failed to sync", failed, len(paths))
	}
	return results, nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
