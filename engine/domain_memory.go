package engine

import (
	"sync"
	"time"
)

// clearanceEntry records when a domain's challenge was last solved.
type clearanceEntry struct {
	userAgent string
	solvedAt  time.Time
	expiresAt time.Time
}

// DomainMemory remembers which domains currently hold a solved clearance.
// Entries expire after the configured TTL and are cleaned up periodically.
type DomainMemory struct {
	store sync.Map // domain (string) -> *clearanceEntry
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts a
// background goroutine that prunes expired entries.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the user agent bound to the domain's clearance and whether a
// live clearance exists.
func (dm *DomainMemory) Get(domain string) (string, bool) {
	entry, ok := dm.load(domain)
	if !ok {
		return "", false
	}
	return entry.userAgent, true
}

// SolvedSince reports whether a live clearance for domain was obtained after t.
func (dm *DomainMemory) SolvedSince(domain string, t time.Time) bool {
	entry, ok := dm.load(domain)
	return ok && entry.solvedAt.After(t)
}

func (dm *DomainMemory) load(domain string) (*clearanceEntry, bool) {
	val, ok := dm.store.Load(domain)
	if !ok {
		return nil, false
	}
	entry := val.(*clearanceEntry)
	if time.Now().After(entry.expiresAt) {
		dm.store.Delete(domain)
		return nil, false
	}
	return entry, true
}

// Set records a fresh clearance for a domain.
func (dm *DomainMemory) Set(domain, userAgent string) {
	now := time.Now()
	dm.store.Store(domain, &clearanceEntry{
		userAgent: userAgent,
		solvedAt:  now,
		expiresAt: now.Add(dm.ttl),
	})
}

// Delete forgets a domain's clearance (e.g. after it stopped working).
func (dm *DomainMemory) Delete(domain string) {
	dm.store.Delete(domain)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	dm.once.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) cleanupLoop() {
	interval := dm.ttl
	if interval <= 0 || interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.store.Range(func(key, value any) bool {
				if now.After(value.(*clearanceEntry).expiresAt) {
					dm.store.Delete(key)
				}
				return true
			})
		}
	}
}
