package scraper

import (
	"context"
	"fmt"
	"time"

	"homesweep/dataset"
	"homesweep/models"
	"homesweep/session"
)

type fakeElement struct {
	html string
	err  error
}

func (e fakeElement) HTML() (string, error) {
	return e.html, e.err
}

func card(price, address, facts string) fakeElement {
	return fakeElement{html: fmt.Sprintf(
		`<article><span data-test="property-card-price">%s</span><address>%s</address><ul><li>%s</li></ul></article>`,
		price, address, facts)}
}

// fakePage replays a scripted sequence of listing counts. Once counts is
// exhausted the last value repeats.
type fakePage struct {
	counts     []int
	countCalls int
	countErr   error
	scrolls    int
	scrollErr  error

	elements    []Element
	listingsErr error

	nextErr   error
	nextLimit int
	nextCalls int

	waitErr   error
	challenge string

	navigated []string
	reloads   int
	added     []session.Token
	tokens    []session.Token
	closed    bool
}

func (p *fakePage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Reload() error {
	p.reloads++
	return nil
}

func (p *fakePage) AddTokens(tokens []session.Token) error {
	p.added = append(p.added, tokens...)
	return nil
}

func (p *fakePage) Tokens() ([]session.Token, error) {
	return p.tokens, nil
}

func (p *fakePage) WaitForListings(timeout time.Duration) error {
	return p.waitErr
}

func (p *fakePage) ScrollToBottom() error {
	p.scrolls++
	return p.scrollErr
}

func (p *fakePage) CountListings() (int, error) {
	if p.countErr != nil {
		return 0, p.countErr
	}
	if len(p.counts) == 0 {
		return len(p.elements), nil
	}
	i := p.countCalls
	if i >= len(p.counts) {
		i = len(p.counts) - 1
	}
	p.countCalls++
	return p.counts[i], nil
}

func (p *fakePage) Listings() ([]Element, error) {
	return p.elements, p.listingsErr
}

func (p *fakePage) NextPage() error {
	p.nextCalls++
	if p.nextErr != nil {
		return p.nextErr
	}
	if p.nextLimit > 0 && p.nextCalls > p.nextLimit {
		return ErrNoNextPage
	}
	return nil
}

func (p *fakePage) Challenge() (string, bool) {
	return p.challenge, p.challenge != ""
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	page *fakePage
	err  error
}

func (b *fakeBrowser) Open(ctx context.Context) (Page, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.page, nil
}

type fakeTokens struct {
	tokens []session.Token
	found  bool
	err    error
}

func (f fakeTokens) Load() ([]session.Token, bool, error) {
	return f.tokens, f.found, f.err
}

// captureSink records every batch and optionally forwards it.
type captureSink struct {
	batches [][]models.Listing
	next    DatasetSink
	err     error
}

func (s *captureSink) Merge(incoming []models.Listing) (dataset.MergeStats, error) {
	s.batches = append(s.batches, incoming)
	if s.err != nil {
		return dataset.MergeStats{}, s.err
	}
	if s.next != nil {
		return s.next.Merge(incoming)
	}
	return dataset.MergeStats{Incoming: len(incoming), Total: len(incoming)}, nil
}

type fakeRecorder struct {
	created []*models.ScrapeRun
	states  []models.RunState
	logs    []string
	last    models.ScrapeRun
}

func (r *fakeRecorder) CreateRun(run *models.ScrapeRun) error {
	r.created = append(r.created, run)
	return nil
}

func (r *fakeRecorder) UpdateRun(run *models.ScrapeRun) error {
	r.states = append(r.states, run.State)
	r.last = *run
	return nil
}

func (r *fakeRecorder) Log(runID string, level models.LogLevel, message, siteID string) error {
	r.logs = append(r.logs, string(level)+": "+message)
	return nil
}
