package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-brain/internal/embedding"
	"github.com/rcliao/agent-brain/internal/model"
)

// DefaultConfidence is used when Put is given no confidence.
const DefaultConfidence = 0.8

// ErrNotFound is returned when an item does not exist or was deleted.
var ErrNotFound = errors.New("memory item not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	embedder embedding.Embedder
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithEmbedder enables embedding-based search.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *SQLiteStore) { s.embedder = e }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLiteStore) { s.log = l }
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		type             TEXT NOT NULL DEFAULT 'note',
		facts            TEXT NOT NULL,
		schema_key       TEXT NOT NULL DEFAULT '',
		confidence       REAL NOT NULL DEFAULT 0.8,
		files            TEXT,
		importance       REAL,
		embedding        TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		deleted_at       TEXT,
		access_count     INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_items_key ON items(schema_key, title);
	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
	CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_items_deleted ON items(deleted_at);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func validScore(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, *v)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*model.MemoryItem, error) {
	title := strings.TrimSpace(p.Title)
	facts := strings.TrimSpace(p.Facts)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if facts == "" {
		return nil, errors.New("facts are required")
	}
	typ := p.Type
	if typ == "" {
		typ = "note"
	}
	if !model.ValidTypes[typ] {
		return nil, fmt.Errorf("invalid type %q", typ)
	}
	if err := validScore("confidence", p.Confidence); err != nil {
		return nil, err
	}
	if err := validScore("importance", p.Importance); err != nil {
		return nil, err
	}
	confidence := DefaultConfidence
	if p.Confidence != nil {
		confidence = *p.Confidence
	}
	schemaKey := strings.Trim(p.SchemaKey, "/")

	var filesJSON *string
	if len(p.Files) > 0 {
		b, _ := json.Marshal(p.Files)
		f := string(b)
		filesJSON = &f
	}

	// Embedding failures degrade search to lexical matching for this item.
	var embJSON *string
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, title+"\n"+facts)
		if err != nil {
			s.log.Warn("embedding failed, storing without vector", zap.String("title", title), zap.Error(err))
		} else {
			b, _ := json.Marshal(v)
			e := string(b)
			embJSON = &e
		}
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id, createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM items
		 WHERE schema_key = ? AND title = ? AND deleted_at IS NULL
		 LIMIT 1`, schemaKey, title).Scan(&id, &createdAt)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET type = ?, facts = ?, confidence = ?, files = ?, importance = ?,
			        embedding = ?, updated_at = ?
			 WHERE id = ?`,
			typ, facts, confidence, filesJSON, p.Importance, embJSON, nowStr, id)
		if err != nil {
			return nil, fmt.Errorf("update item: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		id = ulid.Make().String()
		createdAt = nowStr
		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, title, type, facts, schema_key, confidence, files, importance,
			                    embedding, created_at, updated_at, access_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			id, title, typ, facts, schemaKey, confidence, filesJSON, p.Importance,
			embJSON, nowStr, nowStr)
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created, _ := time.Parse(time.RFC3339, createdAt)
	return &model.MemoryItem{
		ID:         id,
		Title:      title,
		Type:       typ,
		Facts:      facts,
		SchemaKey:  schemaKey,
		Confidence: confidence,
		Files:      p.Files,
		Importance: p.Importance,
		CreatedAt:  created,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.MemoryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND deleted_at IS NULL`, id)
	it, _, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE items SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?`,
		now.Format(time.RFC3339), id); err != nil {
		s.log.Warn("access tracking failed", zap.String("id", id), zap.Error(err))
	}

	return &it, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.MemoryItem, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"deleted_at IS NULL"}
	var args []interface{}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, p.Type)
	}
	if prefix := strings.Trim(p.SchemaPrefix, "/"); prefix != "" {
		where = append(where, "(schema_key = ? OR schema_key LIKE ?)")
		args = append(args, prefix, prefix+"/%")
	}

	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY created_at DESC, id DESC LIMIT ?`,
		itemColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryItems(ctx, query, args...)
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	var res sql.Result
	var err error
	if p.Hard {
		res, err = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, p.ID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
			s.now().UTC().Format(time.RFC3339), p.ID)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	return nil
}

func (s *SQLiteStore) SetSummary(ctx context.Context, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('summary', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strings.TrimSpace(summary))
	return err
}

// Summary returns the stored project brief, or "" if none is set.
func (s *SQLiteStore) Summary(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'summary'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const itemColumns = `id, title, type, facts, schema_key, confidence, files, importance,
	embedding, created_at, updated_at, access_count, last_accessed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]model.MemoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.MemoryItem
	for rows.Next() {
		it, _, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// scanItem reads one row of itemColumns, returning the stored embedding
// separately.
func scanItem(row scanner) (model.MemoryItem, embedding.Vector, error) {
	var it model.MemoryItem
	var files, emb, lastAccessed sql.NullString
	var importance sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(
		&it.ID, &it.Title, &it.Type, &it.Facts, &it.SchemaKey, &it.Confidence,
		&files, &importance, &emb, &createdAt, &updatedAt, &it.AccessCount, &lastAccessed,
	)
	if err != nil {
		return it, nil, err
	}

	it.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	it.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if files.Valid {
		json.Unmarshal([]byte(files.String), &it.Files)
	}
	if importance.Valid {
		v := importance.Float64
		it.Importance = &v
	}
	if lastAccessed.Valid {
		t, _ := time.Parse(time.RFC3339, lastAccessed.String)
		it.LastAccessedAt = &t
	}

	var vec embedding.Vector
	if emb.Valid {
		json.Unmarshal([]byte(emb.String), &vec)
	}
	return it, vec, nil
}
