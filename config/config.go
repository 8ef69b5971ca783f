package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"homesweep/extract"
)

const defaultSite = "zillow"

type Config struct {
	SiteID    string
	SitesDir  string
	Sites     map[string]*SiteConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Paths     PathsConfig
	S3        S3Config
	Scheduler SchedulerConfig

	DatabaseURL string
	LogLevel    string
}

type ScraperConfig struct {
	MaxPages       int
	MaxScrolls     int
	ListingTimeout time.Duration
	SettleDelay    time.Duration
	ScrollDelayMin time.Duration
	ScrollDelayMax time.Duration
	PageDelayMin   time.Duration
	PageDelayMax   time.Duration
}

type BrowserConfig struct {
	Headless  bool
	UserAgent string
	Channel   string
}

type PathsConfig struct {
	Cookies string
	Dataset string
	Log     string
	DB      string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// SiteConfig describes one listing site: where the search results live and
// how to find cards and the next-page control in them.
type SiteConfig struct {
	ID               string                `yaml:"id"`
	Name             string                `yaml:"name"`
	TargetURL        string                `yaml:"target_url"`
	ListingSelector  string                `yaml:"listing_selector"`
	NextSelectors    []string              `yaml:"next_selectors"`
	Card             extract.CardSelectors `yaml:"card"`
	ChallengeMarkers []string              `yaml:"challenge_markers"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultSite is used when no YAML definition for zillow is present.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:              defaultSite,
		Name:            "Zillow",
		TargetURL:       "https://www.zillow.com/san-francisco-ca/",
		ListingSelector: "article",
		NextSelectors: []string{
			`a[title="Next page"]`,
			`a[rel="next"]`,
		},
		Card: extract.CardSelectors{
			Price:   `span[data-test="property-card-price"]`,
			Address: "address",
			Details: "ul",
		},
		ChallengeMarkers: []string{
			"px-captcha",
			"Press & Hold",
			"Access to this page has been denied",
		},
	}
}

// Load reads the environment (optionally seeded from envFile, or .env when
// empty) and the site definitions.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		SiteID:   getEnv("SCRAPE_SITE", defaultSite),
		SitesDir: getEnv("SITES_DIR", filepath.Join("config", "sites")),
		Sites:    make(map[string]*SiteConfig),
		Scraper: ScraperConfig{
			MaxPages:       getEnvInt("MAX_PAGES", 10),
			MaxScrolls:     getEnvInt("MAX_SCROLLS", 30),
			ListingTimeout: getEnvDuration("LISTING_TIMEOUT", 10*time.Second),
			SettleDelay:    getEnvDuration("SETTLE_DELAY", 5*time.Second),
			ScrollDelayMin: getEnvDuration("SCROLL_DELAY_MIN", 2*time.Second),
			ScrollDelayMax: getEnvDuration("SCROLL_DELAY_MAX", 5*time.Second),
			PageDelayMin:   getEnvDuration("PAGE_DELAY_MIN", 3*time.Second),
			PageDelayMax:   getEnvDuration("PAGE_DELAY_MAX", 6*time.Second),
		},
		Browser: BrowserConfig{
			Headless:  os.Getenv("HEADLESS") == "true",
			UserAgent: getEnv("USER_AGENT", defaultUserAgent),
			Channel:   os.Getenv("BROWSER_CHANNEL"),
		},
		Paths: PathsConfig{
			Cookies: getEnv("COOKIES_PATH", filepath.Join("data", "cookies.json")),
			Dataset: getEnv("DATASET_PATH", filepath.Join("data", "listings.csv")),
			Log:     getEnv("LOG_PATH", filepath.Join("logs", "scraper.log")),
			DB:      getEnv("DB_PATH", filepath.Join("data", "runs.db")),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", "zillow-scraped-data"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}
	if _, ok := cfg.Sites[defaultSite]; !ok {
		cfg.Sites[defaultSite] = DefaultSite()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Site returns the definition selected by SCRAPE_SITE.
func (c *Config) Site() (*SiteConfig, error) {
	site, ok := c.Sites[c.SiteID]
	if !ok {
		return nil, fmt.Errorf("unknown site: %s", c.SiteID)
	}
	return site, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.Scraper.MaxPages)
	}
	if c.Scraper.MaxScrolls < 1 {
		return fmt.Errorf("MAX_SCROLLS must be at least 1, got %d", c.Scraper.MaxScrolls)
	}
	if c.Scraper.ScrollDelayMax < c.Scraper.ScrollDelayMin {
		return fmt.Errorf("SCROLL_DELAY_MAX %s is below SCROLL_DELAY_MIN %s", c.Scraper.ScrollDelayMax, c.Scraper.ScrollDelayMin)
	}
	if c.Scraper.PageDelayMax < c.Scraper.PageDelayMin {
		return fmt.Errorf("PAGE_DELAY_MAX %s is below PAGE_DELAY_MIN %s", c.Scraper.PageDelayMax, c.Scraper.PageDelayMin)
	}
	if _, err := c.Site(); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadSiteConfigs() error {
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		site := DefaultSite()
		site.ID = ""
		if err := yaml.Unmarshal(data, site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if site.ID == "" {
			return fmt.Errorf("%s: missing id", path)
		}

		c.Sites[site.ID] = site
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
