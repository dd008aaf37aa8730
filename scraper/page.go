package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/apkscout/engine"
	"github.com/use-agent/apkscout/models"
	"github.com/ysmood/gson"
)

const pollInterval = time.Second

// errStillChallenged is returned when the interstitial outlives the solve
// deadline.
var errStillChallenged = errors.New("interstitial still present at deadline")

// Solve loads req.URL in a stealth tab, waits until the interstitial is gone
// and returns the cookies and user agent the site accepted. It has the
// engine.SolveFunc signature.
//
// Lifecycle:
//
//  1. Timeout guard          – hard deadline on the whole solve
//  2. Acquire page           – borrow a tab from the pool
//  3. DEFER: cleanup         – score the tab; retire it or blank + return it
//  4. Stealth + identity     – stealth.JS, user agent, Referer (before navigation)
//  5. Hijack mount           – block images/fonts/media (before navigation)
//  6. Navigate
//  7. Poll                   – title and selector checks until clear
//  8. Harvest                – cookies for the URL + navigator.userAgent
func (s *Scraper) Solve(ctx context.Context, req *engine.FetchRequest) (_ *engine.Clearance, err error) {
	s.solves.Add(1)

	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 || timeout > s.cfg.SolveTimeout {
		timeout = s.cfg.SolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, err
	}

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewResolveError(models.ErrCodeChallengeFailed, "failed to acquire page from pool", err)
	}

	// ── 3. Cleanup uses the original page, not the request context ────
	defer func() {
		if s.health.record(page.TargetID, err == nil) {
			slog.Info("retiring browser tab", "target", page.TargetID)
			_ = page.Close()
			s.pagePool.Put(nil)
			return
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection and identity ─────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}
	if req.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: req.UserAgent}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}
	headers := map[string]string{}
	if u, parseErr := url.Parse(req.URL); parseErr == nil {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	// ── 5. Hijack ─────────────────────────────────────────────────────
	if router := setupHijack(page, defaultBlockedTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 6. Navigate ───────────────────────────────────────────────────
	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to challenge page failed")
	}

	// ── 7. Poll until the interstitial clears ─────────────────────────
	if err := waitCleared(ctx, p); err != nil {
		return nil, categorizeError(err, "challenge did not clear")
	}

	// ── 8. Harvest ────────────────────────────────────────────────────
	raw, err := p.Cookies([]string{req.URL})
	if err != nil {
		return nil, categorizeError(err, "failed to read cookies")
	}
	ua := evalStringOrEmpty(p, `() => navigator.userAgent`)
	if ua == "" {
		ua = req.UserAgent
	}

	slog.Info("browser cleared challenge", "url", req.URL, "cookies", len(raw))
	return &engine.Clearance{
		Cookies:   toHTTPCookies(raw),
		UserAgent: ua,
	}, nil
}

// waitCleared polls the page title and the interstitial selectors.
func waitCleared(ctx context.Context, p *rod.Page) error {
	for {
		if cleared(p) {
			return nil
		}
		t := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errStillChallenged
			}
			return ctx.Err()
		case <-t.C:
		}
	}
}

func cleared(p *rod.Page) bool {
	info, err := p.Info()
	if err != nil {
		slog.Debug("page info unavailable", "error", err)
		return false
	}
	if engine.IsChallengeTitle(info.Title) {
		return false
	}
	for _, sel := range engine.ChallengeSelectors {
		if has, _, _ := p.Has(sel); has {
			return false
		}
	}
	return true
}

func toHTTPCookies(in []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw browser errors into typed ResolveErrors.
func categorizeError(err error, msg string) *models.ResolveError {
	if errors.Is(err, context.Canceled) {
		return models.NewResolveError(models.ErrCodeCanceled, "solve canceled", err)
	}
	return models.NewResolveError(models.ErrCodeChallengeFailed, msg, err)
}
