package resolver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/apkscout/models"
)

// RunStats summarizes one ResolveAll run.
type RunStats struct {
	Queries  int           `json:"queries"`
	Complete int           `json:"complete"`
	Partial  int           `json:"partial"`
	Absent   int           `json:"absent"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of one query in a run.
type Result struct {
	Query string
	Entry *models.ResolvedEntry
	Err   error
}

// ResolveAll resolves queries with at most workers in flight. Each query's
// chain stays sequential; the registry and the session are shared. Results
// keep the input order.
//
// A challenge failure aborts the run: queued queries are not started and
// the error is returned alongside the results gathered so far.
func (o *Orchestrator) ResolveAll(ctx context.Context, queries []string, workers int) ([]Result, RunStats, error) {
	start := time.Now()
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(queries))
	sem := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		abortMu  sync.Mutex
		abortErr error
	)

	for i, q := range queries {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			for j := i; j < len(queries); j++ {
				results[j] = Result{Query: queries[j], Err: models.NewResolveError(models.ErrCodeCanceled, "run aborted", ctx.Err())}
			}
			break
		}

		wg.Add(1)
		go func(idx int, query string) {
			defer wg.Done()
			defer func() { <-sem }()

			entry, err := o.ResolveQuery(ctx, query)
			results[idx] = Result{Query: query, Entry: entry, Err: err}

			if models.IsChallenge(err) {
				abortMu.Lock()
				if abortErr == nil {
					abortErr = err
					slog.Error("aborting run on challenge failure", "query", query, "error", err)
				}
				abortMu.Unlock()
				cancel()
			}
		}(i, q)
	}
	wg.Wait()

	stats := RunStats{Queries: len(queries), Duration: time.Since(start)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			stats.Failed++
		case r.Entry == nil:
			stats.Absent++
		case r.Entry.Complete():
			stats.Complete++
		default:
			stats.Partial++
		}
	}

	slog.Info("run finished",
		"queries", stats.Queries,
		"complete", stats.Complete,
		"partial", stats.Partial,
		"absent", stats.Absent,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)

	if abortErr != nil {
		return results, stats, abortErr
	}
	if err := ctx.Err(); err != nil && len(queries) > 0 {
		return results, stats, models.NewResolveError(models.ErrCodeCanceled, "run canceled", err)
	}
	return results, stats, nil
}
