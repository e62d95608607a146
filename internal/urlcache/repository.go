package urlcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by PostgresStore
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps entries in the url_cache table
type PostgresStore struct {
	db  Database
	ttl time.Duration
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store. Rows older than ttl read as misses; a zero
// ttl never expires them.
func NewPostgresStore(db Database, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, url string) (Entry, bool, error) {
	query := `
		SELECT url, is_safe, checked_at
		FROM url_cache
		WHERE url = $1
	`

	var e Entry
	err := s.db.QueryRow(ctx, query, url).Scan(&e.URL, &e.IsSafe, &e.CheckedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to get url cache entry: %w", err)
	}

	if s.ttl > 0 && s.now().Sub(e.CheckedAt) > s.ttl {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO url_cache (url, is_safe, checked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE
		SET is_safe = EXCLUDED.is_safe, checked_at = EXCLUDED.checked_at
	`

	if _, err := s.db.Exec(ctx, query, entry.URL, entry.IsSafe, entry.CheckedAt); err != nil {
		return fmt.Errorf("failed to save url cache entry: %w", err)
	}
	return nil
}
