// Package model defines the core memory data types.
package model

import (
	"fmt"
	"time"
)

// MemoryItem is a single unit of project memory.
type MemoryItem struct {
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title"`
	Type           string     `json:"type"`
	Facts          string     `json:"facts"`
	SchemaKey      string     `json:"schema_key"`
	Confidence     float64    `json:"confidence"`
	Files          []string   `json:"files,omitempty"`
	Importance     *float64   `json:"importance,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitzero"`
	UpdatedAt      time.Time  `json:"updated_at,omitzero"`
	AccessCount    int        `json:"access_count,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// SearchResult is a memory item scored against a query.
type SearchResult struct {
	MemoryItem
	Similarity float64 `json:"similarity"`
}

// SearchResponse is the outcome of one semantic search.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	TotalCandidates int            `json:"total_candidates"`
}

// Layers counts brain items per activity tier.
type Layers struct {
	Layer1   int `json:"layer1"`
	Layer2   int `json:"layer2"`
	Archived int `json:"archived"`
}

// BrainDocument is the aggregated project brain.
type BrainDocument struct {
	Document      string  `json:"document"`
	Summary       string  `json:"summary,omitempty"`
	ItemsLoaded   int     `json:"items_loaded"`
	TokenEstimate int     `json:"token_estimate"`
	BrainHash     string  `json:"brain_hash"`
	Layers        *Layers `json:"layers,omitempty"`
}

// Scope selects how a context pack is assembled.
type Scope string

const (
	ScopeFull     Scope = "full"
	ScopeRelevant Scope = "relevant"
	ScopeMinimal  Scope = "minimal"
)

// ParseScope validates a scope string. Empty means relevant.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeRelevant, nil
	case ScopeFull, ScopeRelevant, ScopeMinimal:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid scope %q (valid: full, relevant, minimal)", s)
}

// ValidTypes are the item types accepted by the local store.
var ValidTypes = map[string]bool{
	"decision":     true,
	"pattern":      true,
	"bugfix":       true,
	"architecture": true,
	"convention":   true,
	"note":         true,
}

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
