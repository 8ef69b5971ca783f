package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SITES_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("MAX_PAGES", "")
	t.Setenv("SCRAPE_SITE", "")
	t.Setenv("SETTLE_DELAY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Scraper.MaxPages != 10 {
		t.Errorf("expected MaxPages 10, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.SettleDelay != 5*time.Second {
		t.Errorf("expected SettleDelay 5s, got %s", cfg.Scraper.SettleDelay)
	}

	site, err := cfg.Site()
	if err != nil {
		t.Fatalf("site lookup failed: %v", err)
	}
	if site.ListingSelector != "article" {
		t.Errorf("expected built-in listing selector, got %q", site.ListingSelector)
	}
	if site.Card.Price != `span[data-test="property-card-price"]` {
		t.Errorf("unexpected price selector %q", site.Card.Price)
	}
}

func TestLoad_SiteYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `id: redfin
name: Redfin
target_url: https://www.redfin.com/city/17151/CA/San-Francisco
listing_selector: div.HomeCardContainer
next_selectors:
  - button[data-rf-test-id="react-data-paginate-next"]
card:
  price: span.bp-Homecard__Price--value
`
	if err := os.WriteFile(filepath.Join(dir, "redfin.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITES_DIR", dir)
	t.Setenv("SCRAPE_SITE", "redfin")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	site, err := cfg.Site()
	if err != nil {
		t.Fatalf("site lookup failed: %v", err)
	}
	if site.ListingSelector != "div.HomeCardContainer" {
		t.Errorf("unexpected listing selector %q", site.ListingSelector)
	}
	if len(site.NextSelectors) != 1 {
		t.Errorf("expected yaml to replace next selectors, got %v", site.NextSelectors)
	}
	if site.Card.Address != "address" {
		t.Errorf("expected unset card selector to keep its default, got %q", site.Card.Address)
	}
	if _, ok := cfg.Sites["zillow"]; !ok {
		t.Errorf("expected built-in zillow site alongside yaml sites")
	}
}

func TestLoad_MissingID(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: nameless\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITES_DIR", dir)

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for site without id")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("SITES_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("SCRAPE_SITE", "nowhere")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown site")
	}

	t.Setenv("SCRAPE_SITE", "")
	t.Setenv("PAGE_DELAY_MIN", "10s")
	t.Setenv("PAGE_DELAY_MAX", "1s")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for inverted page delay window")
	}
}
