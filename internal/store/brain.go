package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/contextpack"
	"github.com/rcliao/agent-brain/internal/embedding"
	"github.com/rcliao/agent-brain/internal/model"
)

const (
	archiveConfidence = 0.3
	activeImportance  = 0.6
	activeWindow      = 14 * 24 * time.Hour
	defaultSearchMax  = 15
)

// rankedOrder is the priority order for listing and brain rendering.
const rankedOrder = `ORDER BY COALESCE(importance, -1) DESC, confidence DESC, created_at DESC, id DESC`

// layer classifies an item: 0 archived, 1 active, 2 reference.
func (s *SQLiteStore) layer(it model.MemoryItem) int {
	if it.Confidence < archiveConfidence {
		return 0
	}
	if it.Importance != nil && *it.Importance >= activeImportance {
		return 1
	}
	if it.LastAccessedAt != nil && s.now().Sub(*it.LastAccessedAt) <= activeWindow {
		return 1
	}
	return 2
}

// ListItems returns the highest-ranked active items.
func (s *SQLiteStore) ListItems(ctx context.Context, opts brain.ListOptions) ([]model.MemoryItem, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL `+rankedOrder+` LIMIT ?`, limit)
}

// GetBrain renders the local brain document. The TokenBudget hint is
// honoured by packing whole item sections; Limit caps the items considered.
func (s *SQLiteStore) GetBrain(ctx context.Context, opts brain.BrainOptions) (*model.BrainDocument, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted_at IS NULL ` + rankedOrder
	var args []interface{}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	items, err := s.queryItems(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}

	layers := &model.Layers{}
	var active, reference []model.MemoryItem
	for _, it := range items {
		switch s.layer(it) {
		case 0:
			layers.Archived++
		case 1:
			layers.Layer1++
			active = append(active, it)
		default:
			layers.Layer2++
			reference = append(reference, it)
		}
	}

	budget := opts.TokenBudget
	fits := func(acc *contextpack.Accumulator, text string) bool {
		if budget <= 0 {
			acc.Append(text)
			return true
		}
		return acc.TryAppend(text, budget)
	}

	var acc contextpack.Accumulator
	acc.Append("# Project Brain\n\n")
	if summary != "" {
		acc.Append("## Summary\n\n" + summary + "\n\n")
	}

	loaded := 0
	tiers := []struct {
		title string
		items []model.MemoryItem
	}{
		{"## Layer 1: Active\n\n", active},
		{"## Layer 2: Reference\n\n", reference},
	}
pack:
	for _, tier := range tiers {
		if len(tier.items) == 0 {
			continue
		}
		if !fits(&acc, tier.title) {
			break
		}
		for _, it := range tier.items {
			if !fits(&acc, contextpack.FormatItem(it)) {
				break pack
			}
			loaded++
		}
	}

	document := acc.String()
	sum := sha256.Sum256([]byte(document))
	return &model.BrainDocument{
		Document:      document,
		Summary:       summary,
		ItemsLoaded:   loaded,
		TokenEstimate: acc.Tokens(),
		BrainHash:     hex.EncodeToString(sum[:8]),
		Layers:        layers,
	}, nil
}

// Search scores active items against query. Items with a stored embedding
// are compared by cosine similarity when an embedder is configured; the
// rest fall back to lexical term overlap.
func (s *SQLiteStore) Search(ctx context.Context, query string, opts brain.SearchOptions) (*model.SearchResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchMax
	}

	var qv embedding.Vector
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, query)
		if err != nil {
			s.log.Warn("query embedding failed, using lexical search", zap.Error(err))
		} else {
			qv = v
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &model.SearchResponse{Results: []model.SearchResult{}}
	for rows.Next() {
		it, vec, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		resp.TotalCandidates++

		var sim float64
		if qv != nil && len(vec) == len(qv) {
			sim = model.Clamp01(embedding.CosineSimilarity(qv, vec))
		} else {
			sim = embedding.LexicalSimilarity(query, it.Title+" "+it.Type+" "+it.SchemaKey+" "+it.Facts)
		}
		if sim < opts.MinSimilarity || sim == 0 {
			continue
		}
		resp.Results = append(resp.Results, model.SearchResult{MemoryItem: it, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].Similarity > resp.Results[j].Similarity
	})
	if len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}
	return resp, nil
}
