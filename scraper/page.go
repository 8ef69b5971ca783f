package scraper

import (
	"context"
	"errors"
	"time"

	"homesweep/session"
)

var (
	// ErrNoListings means the first listing element never appeared.
	ErrNoListings = errors.New("no listings rendered")
	// ErrNoNextPage means the next-page control is missing or disabled.
	ErrNoNextPage = errors.New("no next page")
	// ErrChallenged means the site served a bot challenge instead of results.
	ErrChallenged = errors.New("bot challenge detected")
)

// Browser opens isolated browsing sessions.
type Browser interface {
	Open(ctx context.Context) (Page, error)
}

// Page is one browser tab. Calls are made from a single goroutine.
type Page interface {
	Navigate(url string) error
	Reload() error
	AddTokens(tokens []session.Token) error
	Tokens() ([]session.Token, error)

	WaitForListings(timeout time.Duration) error
	ScrollToBottom() error
	CountListings() (int, error)
	Listings() ([]Element, error)

	// NextPage activates the next-page control. It returns ErrNoNextPage
	// when there is nothing to activate.
	NextPage() error

	// Challenge reports the marker of a bot-challenge page, if one is shown.
	Challenge() (string, bool)

	Close() error
}

// Element is one rendered listing card.
type Element interface {
	HTML() (string, error)
}
