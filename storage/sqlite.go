package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"homesweep/models"
)

// RunLedger keeps a local history of scrape runs and their log lines.
type RunLedger struct {
	db *sql.DB
}

func NewRunLedger(dbPath string) (*RunLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	ledger := &RunLedger{db: db}
	if err := ledger.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run ledger: %w", err)
	}

	return ledger, nil
}

func (l *RunLedger) Close() error {
	return l.db.Close()
}

func (l *RunLedger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		site_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		state TEXT,
		pages INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON scrape_runs(site_id, started_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *RunLedger) CreateRun(run *models.ScrapeRun) error {
	_, err := l.db.Exec(`
		INSERT INTO scrape_runs (id, site_id, started_at, state, pages, listings_found, errors_count, error_message)
		VALUES (?, ?, ?, ?, 0, 0, 0, '')`,
		run.ID, run.SiteID, run.StartedAt, run.State)
	return err
}

func (l *RunLedger) UpdateRun(run *models.ScrapeRun) error {
	_, err := l.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, state = ?, pages = ?, listings_found = ?,
			errors_count = ?, error_message = ?
		WHERE id = ?`,
		run.FinishedAt, run.State, run.Pages, run.ListingsFound,
		run.ErrorsCount, run.ErrorMessage, run.ID)
	return err
}

func (l *RunLedger) Log(runID string, level models.LogLevel, message, siteID string) error {
	_, err := l.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

// RecentRuns returns up to limit runs, newest first. An empty siteID matches
// every site.
func (l *RunLedger) RecentRuns(siteID string, limit int) ([]models.ScrapeRun, error) {
	rows, err := l.db.Query(`
		SELECT id, site_id, started_at, finished_at, state, pages, listings_found, errors_count,
			COALESCE(error_message, '')
		FROM scrape_runs
		WHERE ? = '' OR site_id = ?
		ORDER BY started_at DESC
		LIMIT ?`, siteID, siteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var r models.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.SiteID, &r.StartedAt, &finished, &r.State, &r.Pages,
			&r.ListingsFound, &r.ErrorsCount, &r.ErrorMessage); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunLogs returns the log lines of one run in the order they were written.
func (l *RunLedger) RunLogs(runID string) ([]models.ScrapeLog, error) {
	rows, err := l.db.Query(`
		SELECT id, run_id, timestamp, level, message, site_id
		FROM scrape_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var entry models.ScrapeLog
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Timestamp, &entry.Level, &entry.Message, &entry.SiteID); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// LastRunTime is the start of the most recent run that reached DONE, or the
// zero time when there is none.
func (l *RunLedger) LastRunTime(siteID string) (time.Time, error) {
	var lastRun time.Time
	err := l.db.QueryRow(`
		SELECT started_at FROM scrape_runs
		WHERE site_id = ? AND state = ?
		ORDER BY started_at DESC LIMIT 1`,
		siteID, models.RunStateDone).Scan(&lastRun)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return lastRun, err
}
