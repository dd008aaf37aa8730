package dedup

import (
	"sync"

	"github.com/use-agent/apkscout/models"
)

// Outcome is the result of Registry.MergeOrInsert.
type Outcome int

const (
	// Inserted means the key was new; the link became the primary URL.
	Inserted Outcome = iota
	// Completed means the link became the fallback URL of an existing entry.
	Completed
	// Duplicate means the entry already had both URLs; nothing changed.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Completed:
		return "complete"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Registry maps canonical keys to at most one resolved entry.
// It is safe for concurrent use; entries with a fallback URL are never
// modified again.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*models.ResolvedEntry
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*models.ResolvedEntry)}
}

// MergeOrInsert records link for key.
//
//   - key absent: entry is stored with link as its primary URL.
//   - key present without fallback: link becomes the fallback URL.
//   - key present with fallback: nothing changes.
//
// entry is copied; the caller keeps ownership of its value.
func (r *Registry) MergeOrInsert(key string, entry *models.ResolvedEntry, link string) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key]
	if !ok {
		stored := entry.Clone()
		stored.DirectDownloadURL = link
		stored.FallbackDownloadURL = ""
		r.entries[key] = stored
		r.order = append(r.order, key)
		return Inserted
	}

	if existing.FallbackDownloadURL != "" {
		return Duplicate
	}

	existing.FallbackDownloadURL = link
	if existing.Description == "" {
		existing.Description = entry.Description
	}
	return Completed
}

// Get returns a copy of the entry stored under key.
func (r *Registry) Get(key string) (*models.ResolvedEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// IsComplete reports whether key already has a fallback URL.
func (r *Registry) IsComplete(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return ok && e.FallbackDownloadURL != ""
}

// Len returns the number of distinct keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns copies of all entries in insertion order.
func (r *Registry) Entries() []*models.ResolvedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ResolvedEntry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k].Clone())
	}
	return out
}
