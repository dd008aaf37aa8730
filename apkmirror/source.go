package apkmirror

import (
	"context"
	"log/slog"

	"github.com/use-agent/apkscout/cache"
	"github.com/use-agent/apkscout/engine"
	"github.com/use-agent/apkscout/models"
)

// Source searches APKMirror and resolves its listings to direct links.
type Source struct {
	fetch      engine.Fetcher
	limiter    Limiter
	chain      *Chain
	listings   *cache.Cache
	baseURL    string
	maxResults int
}

// Options configures a Source.
type Options struct {
	BaseURL    string
	MaxResults int
	// Listings caches search pages across queries; nil disables caching.
	Listings *cache.Cache
}

// NewSource creates a Source that fetches through fetch and waits on limiter
// before every request.
func NewSource(fetch engine.Fetcher, limiter Limiter, opts Options) *Source {
	return &Source{
		fetch:      fetch,
		limiter:    limiter,
		chain:      NewChain(fetch, limiter, opts.BaseURL),
		listings:   opts.Listings,
		baseURL:    opts.BaseURL,
		maxResults: opts.MaxResults,
	}
}

func (s *Source) Name() string { return models.SourceAPKMirror }

// Search returns up to limit listing candidates for query, or MaxResults when
// limit is not positive. The listing is fetched at most once per cache
// lifetime and limit.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	if limit < 1 {
		limit = s.maxResults
	}
	key := cache.Key(s.Name(), query, limit)
	if cached, ok := s.listings.Get(key); ok {
		slog.Debug("listing cache hit", "query", query, "candidates", len(cached))
		return cached, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, models.NewResolveError(models.ErrCodeCanceled, "rate limiter wait aborted", err)
	}

	searchURL := SearchURL(s.baseURL, query)
	fr, err := s.fetch.Fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(fr.HTML, searchURL, s.baseURL)
	if err != nil {
		return nil, models.NewResolveError(models.ErrCodeTransport, "unparseable listing", err)
	}
	candidates := page.Candidates(limit)
	slog.Info("listing fetched", "query", query, "candidates", len(candidates))

	s.listings.Set(key, candidates)
	return candidates, nil
}

// Resolve walks the candidate's pages. A nil Resolution with a nil error
// means the candidate has no reachable direct link.
func (s *Source) Resolve(ctx context.Context, c models.Candidate) (*models.Resolution, error) {
	res, err := s.chain.Run(ctx, c.URL)
	if err != nil {
		return nil, err
	}
	if res.State != Resolved {
		return nil, nil
	}
	return &models.Resolution{
		URL:         res.URL,
		Description: res.Description,
		Hops:        res.Hops,
	}, nil
}
