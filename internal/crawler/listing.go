// Package crawler implements the browser-driven listing discovery phase:
// one headless session per category, paginated navigation with synthetic
// scrolling to trigger lazy-loaded listings, and anchor harvesting.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"martminer/internal/config"
	"martminer/internal/types"
)

// ListingCrawler drives a headless browser through a category's paginated
// listing views. The session is strictly sequential: one page object, one
// navigation at a time.
type ListingCrawler struct {
	cfg    *config.HarvestConfig
	ua     string
	logger *slog.Logger
}

// NewListingCrawler creates a listing crawler from config.
func NewListingCrawler(cfg *config.Config, logger *slog.Logger) *ListingCrawler {
	return &ListingCrawler{
		cfg:    &cfg.Harvest,
		ua:     cfg.Fetcher.UserAgent,
		logger: logger.With("component", "listing_crawler"),
	}
}

// Harvest crawls up to MaxPages listing pages for the category and returns
// the discovered stubs in page-then-anchor order. A failure on one page is
// logged and the crawl moves on; a session-launch failure is returned as a
// types.SessionError, and cancellation mid-crawl returns the context error
// so callers can tell a truncated run from a complete one. The browser is
// closed unconditionally before Harvest returns.
func (c *ListingCrawler) Harvest(ctx context.Context, job types.CategoryJob) ([]types.ListingStub, error) {
	browser, err := c.connect(ctx)
	if err != nil {
		return nil, &types.SessionError{Category: job.Name, Err: err}
	}
	defer browser.Close()

	// Stealth page: the marketplace serves empty shells to bare
	// automation fingerprints.
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, &types.SessionError{Category: job.Name, Err: fmt.Errorf("stealth page: %w", err)}
	}

	var stubs []types.ListingStub
	for pageNo := 1; pageNo <= c.cfg.MaxPages; pageNo++ {
		pageURL := listingPageURL(job.ListingURL, pageNo)
		c.logger.Info("listing page", "category", job.Name, "page", pageNo, "url", pageURL)

		html, err := c.renderPage(page, pageURL)
		if err != nil {
			pageErr := &types.PageError{Category: job.Name, Page: pageNo, URL: pageURL, Err: err}
			c.logger.Warn("listing page failed, continuing", "error", pageErr)
			continue
		}

		pageStubs := HarvestStubs(html, pageURL, job.Name, c.cfg.PerPageLimit)
		c.logger.Info("anchors harvested", "category", job.Name, "page", pageNo, "stubs", len(pageStubs))
		stubs = append(stubs, pageStubs...)

		// Inter-page pacing to keep the burst rate down.
		if err := pause(ctx, c.cfg.RequestDelay); err != nil {
			c.logger.Warn("harvest interrupted", "category", job.Name, "page", pageNo, "stubs", len(stubs))
			return stubs, err
		}
	}

	return stubs, nil
}

// pause waits out the inter-page delay, returning early with the context
// error when the run is cancelled.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// connect launches a Chromium instance and attaches to it.
func (c *ListingCrawler) connect(ctx context.Context) (*rod.Browser, error) {
	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return browser, nil
}

// renderPage navigates to a listing URL, waits for the initial render, and
// fires a fixed number of synthetic scrolls so intersection-triggered
// listings actually mount. Returns the final page HTML.
func (c *ListingCrawler) renderPage(page *rod.Page, pageURL string) (string, error) {
	if err := page.Timeout(c.cfg.Timeout).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.Timeout(c.cfg.Timeout).WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	time.Sleep(c.cfg.RenderWait)

	for i := 0; i < c.cfg.ScrollCount; i++ {
		if _, err := page.Eval(`() => window.scrollBy(0, 1500)`); err != nil {
			c.logger.Debug("scroll eval failed", "url", pageURL, "error", err)
			break
		}
		time.Sleep(c.cfg.ScrollPause)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}
