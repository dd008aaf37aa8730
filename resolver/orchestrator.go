package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/apkscout/dedup"
	"github.com/use-agent/apkscout/models"
)

// Options tunes the per-query loop.
type Options struct {
	// MaxResults bounds the candidates processed per query.
	MaxResults int

	// SkipCountsAgainstBudget makes the registry fast path (a candidate
	// whose key is already complete) consume one attempt, as a resolved
	// candidate does.
	SkipCountsAgainstBudget bool
}

// Orchestrator resolves queries against one Source, deduplicating through a
// Registry that outlives any single query.
type Orchestrator struct {
	src      Source
	registry *dedup.Registry
	opts     Options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(src Source, registry *dedup.Registry, opts Options) *Orchestrator {
	if opts.MaxResults < 1 {
		opts.MaxResults = 1
	}
	return &Orchestrator{src: src, registry: registry, opts: opts}
}

// Registry returns the shared dedup registry.
func (o *Orchestrator) Registry() *dedup.Registry {
	return o.registry
}

// WithBudget returns an Orchestrator sharing the source and registry but
// capping each query at n attempts. n < 1 keeps the current budget.
func (o *Orchestrator) WithBudget(n int) *Orchestrator {
	if n < 1 {
		return o
	}
	cp := *o
	cp.opts.MaxResults = n
	return &cp
}

// ResolveQuery pages through query's listing until some application gains
// both a primary and a fallback link, or the budget or the listing runs out.
//
// It returns the completed entry; otherwise the first entry this query
// inserted, which has only a primary link; otherwise nil. Errors are only
// returned for cancellation and challenge failures; everything else is
// logged and counted as a dead candidate.
func (o *Orchestrator) ResolveQuery(ctx context.Context, query string) (*models.ResolvedEntry, error) {
	entry, _, err := o.run(ctx, query)
	return entry, err
}

func (o *Orchestrator) run(ctx context.Context, query string) (*models.ResolvedEntry, Cursor, error) {
	var cur Cursor
	for {
		next, entry, done, err := o.step(ctx, query, cur)
		cur = next
		if done || err != nil {
			return entry, cur, err
		}
	}
}

// step processes at most one candidate.
func (o *Orchestrator) step(ctx context.Context, query string, cur Cursor) (Cursor, *models.ResolvedEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return cur, nil, true, models.NewResolveError(models.ErrCodeCanceled, "query canceled", err)
	}

	if cur.Attempts >= o.opts.MaxResults {
		slog.Info("query budget exhausted", "query", query, "attempts", cur.Attempts, "code", models.ErrCodeExhausted)
		return cur, o.partial(cur), true, nil
	}

	if !cur.Fetched {
		listing, err := o.src.Search(ctx, query, o.opts.MaxResults)
		if err != nil {
			if fatal(err) {
				return cur, nil, true, err
			}
			slog.Warn("listing unavailable", "query", query, "code", models.CodeOf(err), "error", err)
			return cur, nil, true, nil
		}
		cur.Listing, cur.Fetched = listing, true
	}

	if cur.Position >= len(cur.Listing) {
		slog.Info("listing exhausted", "query", query, "position", cur.Position, "code", models.ErrCodeExhausted)
		return cur, o.partial(cur), true, nil
	}

	c := cur.Listing[cur.Position]
	key := dedup.Key(c.Title)

	if o.registry.IsComplete(key) {
		slog.Debug("skipping complete key", "query", query, "title", c.Title, "key", key)
		return cur.advance(o.opts.SkipCountsAgainstBudget), nil, false, nil
	}

	res, err := o.src.Resolve(ctx, c)
	cur = cur.advance(true)
	if err != nil {
		if fatal(err) {
			return cur, nil, true, err
		}
		slog.Warn("candidate failed", "query", query, "title", c.Title, "code", models.CodeOf(err), "error", err)
		return cur, nil, false, nil
	}
	if res == nil {
		slog.Info("candidate unresolved", "query", query, "title", c.Title)
		return cur, nil, false, nil
	}

	entry := models.NewResolvedEntry(c, o.src.Name())
	entry.Description = res.Description

	outcome := o.registry.MergeOrInsert(key, entry, res.URL)
	slog.Info("candidate resolved",
		"query", query,
		"title", c.Title,
		"key", key,
		"outcome", outcome.String(),
		"hops", len(res.Hops),
	)

	switch outcome {
	case dedup.Completed:
		cur = cur.touch(key)
		stored, _ := o.registry.Get(key)
		return cur, stored, true, nil
	case dedup.Inserted:
		cur = cur.touch(key)
	}
	return cur, nil, false, nil
}

// partial returns the first entry this query wrote, if any.
func (o *Orchestrator) partial(cur Cursor) *models.ResolvedEntry {
	for _, k := range cur.Keys {
		if e, ok := o.registry.Get(k); ok {
			return e
		}
	}
	return nil
}

// fatal reports errors that must stop the query instead of skipping one
// candidate.
func fatal(err error) bool {
	switch models.CodeOf(err) {
	case models.ErrCodeCanceled, models.ErrCodeChallengeFailed:
		return true
	}
	return errors.Is(err, context.Canceled)
}
