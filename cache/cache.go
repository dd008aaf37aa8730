// Package cache keeps recently fetched search listings so repeated queries
// within a run do not hit the listing site again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/apkscout/models"
)

// entry holds a cached listing with its creation timestamp.
type entry struct {
	candidates []models.Candidate
	createdAt  time.Time
}

// Cache is a simple in-memory listing cache.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
	once       sync.Once
}

// New creates a Cache holding at most maxEntries listings for ttl each.
// A background goroutine evicts expired entries.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the source, the query and the listing size.
// Queries differing only in case or surrounding space share a key.
func Key(source, query string, maxResults int) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(maxResults)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached listing if it exists and has not expired.
// The returned slice is a copy.
func (c *Cache) Get(key string) ([]models.Candidate, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.createdAt) > c.ttl {
		return nil, false
	}

	out := make([]models.Candidate, len(e.candidates))
	copy(out, e.candidates)
	return out, true
}

// Set stores a listing. If the cache is at capacity the oldest entry is
// evicted to make room.
func (c *Cache) Set(key string, candidates []models.Candidate) {
	if c == nil {
		return
	}

	stored := make([]models.Candidate, len(candidates))
	copy(stored, candidates)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{
		candidates: stored,
		createdAt:  time.Now(),
	}
}

// Len returns the number of stored listings, expired or not.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop terminates the background cleanup goroutine.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

// cleanupLoop evicts expired entries every few minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.ttl <= 0 {
				continue
			}
			cutoff := time.Now().Add(-c.ttl)
			c.mu.Lock()
			for k, e := range c.store {
				if e.createdAt.Before(cutoff) {
					delete(c.store, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
