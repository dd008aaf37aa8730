package engine

import (
	"context"
	"fmt"
)

// SolveFunc is the callback that drives a real browser through a challenge.
// It is injected from main to avoid a circular import (engine/ -> scraper/).
type SolveFunc func(ctx context.Context, req *FetchRequest) (*Clearance, error)

// RodEngine is the browser side of a Session. It only produces clearances;
// page content always comes from the HTTP engine.
type RodEngine struct {
	solve SolveFunc
}

// NewRodEngine creates a RodEngine around solve.
func NewRodEngine(solve SolveFunc) *RodEngine {
	return &RodEngine{solve: solve}
}

func (e *RodEngine) Name() string { return "rod-stealth" }

// Solve runs the callback and checks that it produced usable cookies.
func (e *RodEngine) Solve(ctx context.Context, req *FetchRequest) (*Clearance, error) {
	if e == nil || e.solve == nil {
		return nil, fmt.Errorf("%s: solver not configured", e.Name())
	}

	r := *req
	c, err := e.solve(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	if c == nil || len(c.Cookies) == 0 {
		return nil, fmt.Errorf("%s: challenge left no cookies", e.Name())
	}
	return c, nil
}
