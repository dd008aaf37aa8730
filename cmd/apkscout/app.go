package main

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/apkscout/apkmirror"
	"github.com/use-agent/apkscout/cache"
	"github.com/use-agent/apkscout/config"
	"github.com/use-agent/apkscout/dedup"
	"github.com/use-agent/apkscout/engine"
	"github.com/use-agent/apkscout/resolver"
	"github.com/use-agent/apkscout/scraper"
)

// app holds the process-wide components shared by every query.
type app struct {
	session      *engine.Session
	scraper      *scraper.Scraper
	listings     *cache.Cache
	orchestrator *resolver.Orchestrator
}

// newApp wires the resolution stack:
//
//	Orchestrator → Source → Chain → RateLimiter + Session(HTTP, Rod)
func newApp(cfg *config.Config) (*app, error) {
	// ── 1. HTTP engine (Chrome TLS fingerprint + shared cookie jar) ──
	httpEngine, err := engine.NewHTTPEngine(engine.HTTPOptions{
		UserAgent: cfg.Resolver.UserAgent,
		Proxy:     cfg.Challenge.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("init http engine: %w", err)
	}

	// ── 2. Browser solver (launched lazily on the first challenge) ──
	a := &app{}
	var solver *engine.RodEngine
	if cfg.Challenge.Enabled {
		a.scraper = scraper.NewScraper(cfg.Challenge)
		solver = engine.NewRodEngine(a.scraper.Solve)
	}

	// ── 3. Challenge-aware session ──────────────────────────────────
	memory := engine.NewDomainMemory(cfg.Challenge.ClearanceTTL)
	a.session = engine.NewSession(httpEngine, solver, memory, engine.SessionConfig{
		Timeout:      cfg.Resolver.Timeout,
		SolveTimeout: cfg.Challenge.SolveTimeout,
		Backoff:      cfg.Challenge.Backoff,
		MaxFailures:  cfg.Challenge.MaxFailures,
	})

	// ── 4. Source with rate limiter and listing cache ───────────────
	a.listings = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	src := apkmirror.NewSource(a.session, resolver.NewRateLimiter(cfg.Resolver.RateLimitDelay), apkmirror.Options{
		BaseURL:    cfg.Resolver.BaseURL,
		MaxResults: cfg.Resolver.MaxResults,
		Listings:   a.listings,
	})

	// ── 5. Orchestrator over a fresh registry ───────────────────────
	a.orchestrator = resolver.NewOrchestrator(src, dedup.NewRegistry(), resolver.Options{
		MaxResults:              cfg.Resolver.MaxResults,
		SkipCountsAgainstBudget: cfg.Resolver.SkipCountsAgainstBudget,
	})

	slog.Info("resolver ready",
		"base_url", cfg.Resolver.BaseURL,
		"max_results", cfg.Resolver.MaxResults,
		"rate_limit_delay", cfg.Resolver.RateLimitDelay,
		"challenge_solver", cfg.Challenge.Enabled,
	)
	return a, nil
}

// Close stops background loops and kills the browser, if one was launched.
func (a *app) Close() {
	a.session.Close()
	a.listings.Stop()
	if a.scraper != nil {
		a.scraper.Close()
	}
}
