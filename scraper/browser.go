package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"homesweep/config"
	"homesweep/session"
)

const (
	navigationTimeout = 60 * time.Second
	clickTimeout      = 10 * time.Second
)

// hideWebdriver runs before any page script.
const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', { get: () => false });`

// PlaywrightBrowser launches Chromium through Playwright. Every Open starts a
// separate driver, browser and context, and closing the page tears all three
// down.
type PlaywrightBrowser struct {
	site   *config.SiteConfig
	cfg    config.BrowserConfig
	logger *slog.Logger
}

func NewPlaywrightBrowser(site *config.SiteConfig, cfg config.BrowserConfig, logger *slog.Logger) *PlaywrightBrowser {
	return &PlaywrightBrowser{site: site, cfg: cfg, logger: logger}
}

func (b *PlaywrightBrowser) Open(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if b.cfg.Channel != "" {
		opts.Channel = playwright.String(b.cfg.Channel)
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(b.cfg.UserAgent),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
		Locale:    playwright.String("en-US"),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriver)}); err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to add init script: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &browserPage{
		site:    b.site,
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		logger:  b.logger,
	}, nil
}

type browserPage struct {
	site    *config.SiteConfig
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger
}

func (p *browserPage) Navigate(url string) error {
	p.logger.Info("navigating", "url", url)
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return err
	}
	p.handleConsent()
	return nil
}

func (p *browserPage) Reload() error {
	_, err := p.page.Reload(playwright.PageReloadOptions{
		Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *browserPage) AddTokens(tokens []session.Token) error {
	return p.context.AddCookies(toCookies(tokens))
}

func (p *browserPage) Tokens() ([]session.Token, error) {
	cookies, err := p.context.Cookies()
	if err != nil {
		return nil, err
	}
	return fromCookies(cookies), nil
}

func (p *browserPage) WaitForListings(timeout time.Duration) error {
	return p.page.Locator(p.site.ListingSelector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *browserPage) ScrollToBottom() error {
	_, err := p.page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (p *browserPage) CountListings() (int, error) {
	return p.page.Locator(p.site.ListingSelector).Count()
}

func (p *browserPage) Listings() ([]Element, error) {
	locators, err := p.page.Locator(p.site.ListingSelector).All()
	if err != nil {
		return nil, err
	}

	elements := make([]Element, len(locators))
	for i, loc := range locators {
		elements[i] = locatorElement{loc}
	}
	return elements, nil
}

func (p *browserPage) NextPage() error {
	for _, sel := range p.site.NextSelectors {
		btn := p.page.Locator(sel).First()
		if visible, _ := btn.IsVisible(); !visible {
			continue
		}
		if disabled, _ := btn.GetAttribute("aria-disabled"); disabled == "true" {
			return fmt.Errorf("%w: %s is disabled", ErrNoNextPage, sel)
		}

		if err := btn.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(float64(clickTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("click %s: %w", sel, err)
		}
		p.logger.Debug("clicked next button", "selector", sel)
		return nil
	}
	return ErrNoNextPage
}

func (p *browserPage) Challenge() (string, bool) {
	content, err := p.page.Content()
	if err != nil {
		return "", false
	}
	marker := detectChallenge(content, p.site.ChallengeMarkers)
	return marker, marker != ""
}

func (p *browserPage) Close() error {
	var errs []string
	if err := p.context.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := p.pw.Stop(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close browser: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (p *browserPage) handleConsent() {
	consentSelectors := []string{
		"#onetrust-accept-btn-handler",
		"button:has-text('Accept All')",
		"button:has-text('Accept')",
		"button:has-text('I Agree')",
		"button[aria-label='Close']",
	}

	for _, selector := range consentSelectors {
		btn := p.page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			p.logger.Info("dismissing consent banner", "selector", selector)
			btn.Click()
			p.page.WaitForTimeout(1000)
			break
		}
	}
}

type locatorElement struct {
	loc playwright.Locator
}

func (e locatorElement) HTML() (string, error) {
	return e.loc.InnerHTML()
}

// detectChallenge returns the first marker found in content, unless the
// page also carries rendered listings.
func detectChallenge(content string, markers []string) string {
	if strings.Contains(content, `data-test="property-card"`) {
		return ""
	}
	for _, m := range markers {
		if m != "" && strings.Contains(content, m) {
			return m
		}
	}
	return ""
}

func toCookies(tokens []session.Token) []playwright.OptionalCookie {
	cookies := make([]playwright.OptionalCookie, 0, len(tokens))
	for _, t := range tokens {
		c := playwright.OptionalCookie{
			Name:     t.Name,
			Value:    t.Value,
			Domain:   playwright.String(t.Domain),
			Path:     playwright.String(t.Path),
			Expires:  playwright.Float(t.Expires),
			HttpOnly: playwright.Bool(t.HTTPOnly),
			Secure:   playwright.Bool(t.Secure),
		}
		if s := sameSite(t.SameSite); s != nil {
			c.SameSite = s
		}
		cookies = append(cookies, c)
	}
	return cookies
}

func fromCookies(cookies []playwright.Cookie) []session.Token {
	tokens := make([]session.Token, 0, len(cookies))
	for _, c := range cookies {
		t := session.Token{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			t.SameSite = string(*c.SameSite)
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func sameSite(v string) *playwright.SameSiteAttribute {
	switch strings.ToLower(v) {
	case "strict":
		return playwright.SameSiteAttributeStrict
	case "lax":
		return playwright.SameSiteAttributeLax
	case "none", "no_restriction":
		return playwright.SameSiteAttributeNone
	}
	return nil
}
