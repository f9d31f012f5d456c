// Package brain defines the memory provider contract and the HTTP client
// for the remote brain service.
package brain

import (
	"context"

	"github.com/rcliao/agent-brain/internal/model"
)

// BrainOptions are hints for a brain fetch. Zero values mean "no hint".
type BrainOptions struct {
	TokenBudget int
	Limit       int
}

// SearchOptions control a semantic search.
type SearchOptions struct {
	Limit         int
	MinSimilarity float64
}

// ListOptions control item listing.
type ListOptions struct {
	Limit int
}

// Provider is a source of project memory. Every call may fail.
type Provider interface {
	// GetBrain returns the aggregated brain document. TokenBudget is a
	// request, not a guarantee: callers must check the size themselves.
	GetBrain(ctx context.Context, opts BrainOptions) (*model.BrainDocument, error)

	// Search scores memory items against query.
	Search(ctx context.Context, query string, opts SearchOptions) (*model.SearchResponse, error)

	// ListItems returns the top memory items.
	ListItems(ctx context.Context, opts ListOptions) ([]model.MemoryItem, error)
}
