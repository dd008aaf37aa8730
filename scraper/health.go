package scraper

import (
	"math"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// Retirement thresholds for a browser tab.
const (
	maxErrScore = 3.0
	maxUses     = 50
	maxPageAge  = 50 * time.Minute
)

// pageHealth scores one tab: a failed solve adds 1, a clean one removes 0.5.
type pageHealth struct {
	errScore float64
	uses     int
	created  time.Time
}

// healthTracker decides when a pooled tab should be closed instead of
// reused.
type healthTracker struct {
	mu    sync.Mutex
	pages map[proto.TargetTargetID]*pageHealth
	now   func() time.Time
}

func newHealthTracker() *healthTracker {
	return &healthTracker{
		pages: make(map[proto.TargetTargetID]*pageHealth),
		now:   time.Now,
	}
}

// record scores one solve on tab id and reports whether the tab should be
// retired. Retired tabs are forgotten.
func (t *healthTracker) record(id proto.TargetTargetID, ok bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, found := t.pages[id]
	if !found {
		h = &pageHealth{created: t.now()}
		t.pages[id] = h
	}
	h.uses++
	if ok {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore++
	}

	retire := h.errScore >= maxErrScore ||
		h.uses >= maxUses ||
		t.now().Sub(h.created) >= maxPageAge
	if retire {
		delete(t.pages, id)
	}
	return retire
}

func (t *healthTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.pages)
}
