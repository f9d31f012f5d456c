package store

import (
	"context"

	"github.com/rcliao/agent-brain/internal/model"
)

// ExportAll returns all non-deleted items, oldest first.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.MemoryItem, error) {
	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL ORDER BY created_at, id`)
}

// Import stores items from an export. Items matching an existing schema key
// and title update it instead of duplicating.
func (s *SQLiteStore) Import(ctx context.Context, items []model.MemoryItem) (int, error) {
	imported := 0
	for _, it := range items {
		confidence := it.Confidence
		_, err := s.Put(ctx, PutParams{
			Title:      it.Title,
			Type:       it.Type,
			Facts:      it.Facts,
			SchemaKey:  it.SchemaKey,
			Confidence: &confidence,
			Files:      it.Files,
			Importance: it.Importance,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
