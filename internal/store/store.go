// Package store provides a SQLite-backed local memory store. It serves the
// same brain.Provider contract as the remote service so the CLI and MCP
// server can run offline.
package store

import (
	"context"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/model"
)

// PutParams holds parameters for storing a memory item.
type PutParams struct {
	Title      string
	Type       string
	Facts      string
	SchemaKey  string
	Confidence *float64 // nil means DefaultConfidence
	Files      []string
	Importance *float64
}

// ListParams holds parameters for listing items.
type ListParams struct {
	Type         string
	SchemaPrefix string
	Limit        int
}

// RmParams holds parameters for deleting an item.
type RmParams struct {
	ID   string
	Hard bool
}

// Store defines the local memory storage interface.
type Store interface {
	brain.Provider

	// Put stores an item, updating the active item with the same schema
	// key and title if there is one.
	Put(ctx context.Context, p PutParams) (*model.MemoryItem, error)

	// Get retrieves an item by ID and records the access.
	Get(ctx context.Context, id string) (*model.MemoryItem, error)

	// List lists items matching the given filters, newest first.
	List(ctx context.Context, p ListParams) ([]model.MemoryItem, error)

	// Rm soft-deletes (or hard-deletes) an item.
	Rm(ctx context.Context, p RmParams) error

	// SetSummary stores the project brief.
	SetSummary(ctx context.Context, summary string) error

	// Close closes the store.
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
