package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	TotalItems  int         `json:"total_items"`
	ActiveItems int         `json:"active_items"`
	Embedded    int         `json:"embedded_items"`
	HasSummary  bool        `json:"has_summary"`
	Types       []TypeStats `json:"types"`
}

// TypeStats holds per-type counts of active items.
type TypeStats struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.TotalItems)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE deleted_at IS NULL`).Scan(&st.ActiveItems)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE deleted_at IS NULL AND embedding IS NOT NULL`).Scan(&st.Embedded)
	if summary, err := s.Summary(ctx); err == nil {
		st.HasSummary = summary != ""
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) AS cnt
		FROM items WHERE deleted_at IS NULL
		GROUP BY type ORDER BY cnt DESC, type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.Type, &ts.Count); err != nil {
			return st, err
		}
		st.Types = append(st.Types, ts)
	}

	return st, rows.Err()
}
