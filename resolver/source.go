// Package resolver turns free-text application names into resolved entries
// by paging through a source's listing one candidate at a time.
package resolver

import (
	"context"

	"github.com/use-agent/apkscout/models"
)

// Source is one listing site.
type Source interface {
	// Name is the tag written into every entry's source field.
	Name() string

	// Search returns at most limit listing candidates for query in site
	// order.
	Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// Resolve walks a candidate to a direct download URL. A nil Resolution
	// with a nil error means the candidate has no reachable link.
	Resolve(ctx context.Context, c models.Candidate) (*models.Resolution, error)
}
