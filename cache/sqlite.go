package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/voxfield/voxfield/shape"
)

// SQLiteStore is the persistent cache tier. Targets are stored in the
// compact wire encoding keyed by normalized concept.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite creates or opens the cache database, creating parent
// directories as needed.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shapes (
		concept TEXT PRIMARY KEY,
		point_count INTEGER NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored target for a normalized concept, or nil when
// absent. A row with a corrupt payload is deleted and reported as
// absent so one bad write cannot poison a concept forever.
func (s *SQLiteStore) Get(ctx context.Context, concept string) (*shape.MorphTarget, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM shapes WHERE concept = ?", concept).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query shape %q: %w", concept, err)
	}

	m, err := shape.Decode(concept, payload)
	if err != nil {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM shapes WHERE concept = ?", concept)
		return nil, fmt.Errorf("corrupt cache entry for %q dropped: %w", concept, err)
	}
	return m, nil
}

// Put upserts a target under its normalized concept.
func (s *SQLiteStore) Put(ctx context.Context, m *shape.MorphTarget) error {
	key := shape.NormalizeConcept(m.Concept)
	payload, err := shape.Encode(m)
	if err != nil {
		return fmt.Errorf("encode shape %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shapes (concept, point_count, payload) VALUES (?, ?, ?)
		ON CONFLICT(concept) DO UPDATE SET
			point_count = excluded.point_count,
			payload = excluded.payload,
			created_at = CURRENT_TIMESTAMP`,
		key, m.Len(), payload)
	if err != nil {
		return fmt.Errorf("store shape %q: %w", key, err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
