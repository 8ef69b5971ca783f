package models

import "time"

type RunState string

const (
	RunStateInit          RunState = "init"
	RunStateAuthenticated RunState = "authenticated"
	RunStateListingPage   RunState = "listing_page"
	RunStateDone          RunState = "done"
	RunStateFailed        RunState = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s RunState) Terminal() bool {
	return s == RunStateDone || s == RunStateFailed
}

type ScrapeRun struct {
	ID            string     `json:"id" db:"id"`
	SiteID        string     `json:"site_id" db:"site_id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	State         RunState   `json:"state" db:"state"`
	Pages         int        `json:"pages" db:"pages"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
	ErrorMessage  string     `json:"error_message" db:"error_message"`
}

// Duration is zero while the run is still in progress.
func (r *ScrapeRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
