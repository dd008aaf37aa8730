// Package scraper drives a stealth Chromium through anti-bot interstitials
// and hands the resulting clearance back to the HTTP session.
package scraper

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/apkscout/config"
	"github.com/use-agent/apkscout/models"
)

// maxPages bounds concurrently open tabs. Solves are serialized by the
// session, so one spare tab is enough.
const maxPages = 2

// Scraper owns the browser process. The browser is launched on the first
// solve; runs that never meet a challenge never start Chromium.
// It is safe for concurrent use.
type Scraper struct {
	cfg config.ChallengeConfig

	mu       sync.Mutex
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
	health   *healthTracker

	activePages atomic.Int32
	solves      atomic.Int64
}

// NewScraper prepares a Scraper without launching anything.
func NewScraper(cfg config.ChallengeConfig) *Scraper {
	return &Scraper{cfg: cfg, health: newHealthTracker()}
}

// ensureBrowser launches and connects the browser if it is not running yet.
func (s *Scraper) ensureBrowser() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		return s.browser, nil
	}

	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)

	if s.cfg.BrowserBin != "" {
		l = l.Bin(s.cfg.BrowserBin)
	}
	if s.cfg.Proxy != "" {
		l = l.Proxy(s.cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewResolveError(
			models.ErrCodeChallengeFailed,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewResolveError(
			models.ErrCodeChallengeFailed,
			"failed to connect to browser",
			err,
		)
	}

	s.browser = browser
	s.pagePool = rod.NewPagePool(maxPages)
	return browser, nil
}

// Solves returns how many solves have been attempted.
func (s *Scraper) Solves() int64 {
	return s.solves.Load()
}

// Close drains the page pool and kills the browser process, if one was
// started. Call this on shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return
	}
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := s.browser.Close(); err != nil {
		slog.Warn("closing browser", "error", err)
	}
	s.browser = nil
	s.health.reset()
	slog.Info("scraper shutdown complete")
}
