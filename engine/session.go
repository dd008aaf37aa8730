package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/apkscout/models"
)

// SessionConfig tunes challenge handling.
type SessionConfig struct {
	// Timeout bounds every plain HTTP fetch.
	Timeout time.Duration
	// SolveTimeout bounds one browser solve.
	SolveTimeout time.Duration
	// Backoff is waited before the solve that follows a failed one.
	Backoff time.Duration
	// MaxFailures consecutive failed solves block the session for good.
	MaxFailures int
}

// Session is the process-wide challenge-aware client. Pages are fetched over
// HTTP; when the site answers with an interstitial, one browser solve runs
// (concurrent callers wait for it and reuse its cookies) and the fetch is
// retried once.
type Session struct {
	http   *HTTPEngine
	solver *RodEngine
	memory *DomainMemory
	cfg    SessionConfig

	solveMu   sync.Mutex
	failures  int
	nextSolve time.Time

	requests          atomic.Int64
	challengesSolved  atomic.Int64
	challengeFailures atomic.Int64
	blocked           atomic.Bool
}

// NewSession wires the engines together. solver may be nil, in which case
// any challenge is a hard failure.
func NewSession(httpEngine *HTTPEngine, solver *RodEngine, memory *DomainMemory, cfg SessionConfig) *Session {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	return &Session{
		http:   httpEngine,
		solver: solver,
		memory: memory,
		cfg:    cfg,
	}
}

// Fetch GETs rawURL, passing a challenge if one is served.
//
// Errors are *models.ResolveError: TRANSPORT_FAILED for network problems and
// non-2xx pages, CHALLENGE_FAILED when the interstitial could not be passed,
// CANCELED when ctx ends first.
func (s *Session) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if s.blocked.Load() {
		return nil, models.NewResolveError(models.ErrCodeChallengeFailed,
			"session blocked after repeated challenge failures", nil)
	}

	s.requests.Add(1)
	started := time.Now()
	res, err := s.fetchOnce(ctx, rawURL)
	if err == nil {
		return res, nil
	}
	if !isChallengeErr(err) {
		return nil, categorizeError(err, "fetch failed")
	}

	slog.Info("challenge detected", "url", rawURL)
	if err := s.refresh(ctx, rawURL, started); err != nil {
		return nil, err
	}

	res, err = s.fetchOnce(ctx, rawURL)
	if err == nil {
		return res, nil
	}
	if isChallengeErr(err) {
		s.memory.Delete(hostOf(rawURL))
		return nil, models.NewResolveError(models.ErrCodeChallengeFailed,
			"challenge served again after clearance", err)
	}
	return nil, categorizeError(err, "fetch failed")
}

func (s *Session) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	return s.http.Fetch(ctx, &FetchRequest{URL: rawURL, Timeout: s.cfg.Timeout})
}

// refresh obtains a new clearance for rawURL's host. Only one solve runs at a
// time; a caller that queued behind a successful solve returns immediately.
func (s *Session) refresh(ctx context.Context, rawURL string, since time.Time) error {
	s.solveMu.Lock()
	defer s.solveMu.Unlock()

	domain := hostOf(rawURL)
	if s.memory.SolvedSince(domain, since) {
		slog.Debug("reusing clearance from concurrent solve", "domain", domain)
		return nil
	}
	if s.blocked.Load() {
		return models.NewResolveError(models.ErrCodeChallengeFailed,
			"session blocked after repeated challenge failures", nil)
	}
	if s.solver == nil {
		return s.recordFailure(errors.New("no challenge solver configured"))
	}

	if wait := time.Until(s.nextSolve); wait > 0 {
		slog.Info("challenge backoff", "wait", wait)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return categorizeError(ctx.Err(), "canceled during challenge backoff")
		case <-t.C:
		}
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.SolveTimeout)
	defer cancel()

	clearance, err := s.solver.Solve(solveCtx, &FetchRequest{
		URL:       rawURL,
		UserAgent: s.http.UserAgent(),
		Timeout:   s.cfg.SolveTimeout,
	})
	if err != nil {
		if ctx.Err() != nil {
			return categorizeError(ctx.Err(), "canceled during challenge solve")
		}
		return s.recordFailure(err)
	}

	if err := s.http.ApplyClearance(rawURL, clearance); err != nil {
		return s.recordFailure(err)
	}
	s.failures = 0
	s.memory.Set(domain, clearance.UserAgent)
	s.challengesSolved.Add(1)
	slog.Info("challenge solved", "domain", domain, "cookies", len(clearance.Cookies))
	return nil
}

// recordFailure must be called with solveMu held.
func (s *Session) recordFailure(err error) error {
	s.failures++
	s.challengeFailures.Add(1)
	s.nextSolve = time.Now().Add(s.cfg.Backoff)
	if s.failures >= s.cfg.MaxFailures {
		s.blocked.Store(true)
		slog.Error("challenge failures exhausted, session blocked",
			"failures", s.failures, "error", err)
	} else {
		slog.Warn("challenge solve failed",
			"failures", s.failures, "max", s.cfg.MaxFailures, "error", err)
	}
	return models.NewResolveError(models.ErrCodeChallengeFailed, "challenge solve failed", err)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() models.SessionStats {
	return models.SessionStats{
		Requests:          s.requests.Load(),
		ChallengesSolved:  s.challengesSolved.Load(),
		ChallengeFailures: s.challengeFailures.Load(),
		Blocked:           s.blocked.Load(),
	}
}

// Close stops background work.
func (s *Session) Close() {
	s.memory.Stop()
}

// categorizeError wraps raw errors into typed ResolveErrors.
func categorizeError(err error, msg string) *models.ResolveError {
	var re *models.ResolveError
	if errors.As(err, &re) {
		return re
	}
	switch {
	case errors.Is(err, context.Canceled):
		return models.NewResolveError(models.ErrCodeCanceled, "request canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewResolveError(models.ErrCodeTransport, "request timed out", err)
	default:
		return models.NewResolveError(models.ErrCodeTransport, msg, err)
	}
}

// hostOf parses the hostname from a URL string.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
