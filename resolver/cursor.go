package resolver

import "github.com/use-agent/apkscout/models"

// Cursor is the per-query pagination state. A fresh zero Cursor starts every
// query; it is passed into and returned from each orchestrator step and never
// shared between queries.
type Cursor struct {
	// Position is the index of the next listing candidate.
	Position int
	// Attempts counts processed candidates against the budget.
	Attempts int

	// Listing is fetched on the first step and reused afterwards.
	Listing []models.Candidate
	Fetched bool

	// Keys are the registry keys this query inserted or completed, in order.
	Keys []string
}

func (c Cursor) advance(countAttempt bool) Cursor {
	c.Position++
	if countAttempt {
		c.Attempts++
	}
	return c
}

func (c Cursor) touch(key string) Cursor {
	for _, k := range c.Keys {
		if k == key {
			return c
		}
	}
	keys := make([]string, len(c.Keys), len(c.Keys)+1)
	copy(keys, c.Keys)
	c.Keys = append(keys, key)
	return c
}
