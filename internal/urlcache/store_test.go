package urlcache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/postguard/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Redis
// ============================================================================

func TestRedisStore_GetMiss(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	store := NewRedisStore(&redis.Client{Client: db}, time.Hour)

	rmock.ExpectGet("postguard:urlcache:http://a.test").RedisNil()

	_, found, err := store.Get(context.Background(), "http://a.test")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisStore_PutThenGet(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	store := NewRedisStore(&redis.Client{Client: db}, time.Hour)

	entry := Entry{URL: "http://a.test", IsSafe: false, CheckedAt: fixedNow}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	rmock.ExpectSet("postguard:urlcache:http://a.test", string(data), time.Hour).SetVal("OK")
	rmock.ExpectGet("postguard:urlcache:http://a.test").SetVal(string(data))

	require.NoError(t, store.Put(context.Background(), entry))
	got, found, err := store.Get(context.Background(), "http://a.test")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.URL, got.URL)
	assert.False(t, got.IsSafe)
	assert.True(t, entry.CheckedAt.Equal(got.CheckedAt))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	store := NewRedisStore(&redis.Client{Client: db}, time.Hour)

	rmock.ExpectGet("postguard:urlcache:http://a.test").SetErr(errors.New("connection reset"))
	_, _, err := store.Get(context.Background(), "http://a.test")
	assert.Error(t, err)

	rmock.ExpectGet("postguard:urlcache:http://b.test").SetVal("not json")
	rmock.ExpectDel("postguard:urlcache:http://b.test").SetVal(1)
	_, found, err := store.Get(context.Background(), "http://b.test")
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

// ============================================================================
// Postgres
// ============================================================================

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	callArgs := m.Called(ctx, sql, args)
	return callArgs.Get(0).(pgx.Row)
}

func (m *MockDatabase) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	callArgs := m.Called(ctx, sql, args)
	return callArgs.Get(0).(pgconn.CommandTag), callArgs.Error(1)
}

type fakeRow struct {
	entry Entry
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.entry.URL
	*dest[1].(*bool) = r.entry.IsSafe
	*dest[2].(*time.Time) = r.entry.CheckedAt
	return nil
}

func newTestPostgresStore(db Database, ttl time.Duration) *PostgresStore {
	s := NewPostgresStore(db, ttl)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestPostgresStore_Get(t *testing.T) {
	tests := []struct {
		name      string
		ttl       time.Duration
		row       fakeRow
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "fresh entry",
			ttl:       24 * time.Hour,
			row:       fakeRow{entry: Entry{URL: "http://a", IsSafe: false, CheckedAt: fixedNow.Add(-time.Hour)}},
			wantFound: true,
		},
		{
			name: "stale entry",
			ttl:  24 * time.Hour,
			row:  fakeRow{entry: Entry{URL: "http://a", IsSafe: false, CheckedAt: fixedNow.Add(-48 * time.Hour)}},
		},
		{
			name:      "no ttl never expires",
			ttl:       0,
			row:       fakeRow{entry: Entry{URL: "http://a", IsSafe: false, CheckedAt: fixedNow.Add(-24 * 365 * time.Hour)}},
			wantFound: true,
		},
		{
			name: "no row",
			ttl:  time.Hour,
			row:  fakeRow{err: pgx.ErrNoRows},
		},
		{
			name:    "query error",
			ttl:     time.Hour,
			row:     fakeRow{err: errors.New("connection refused")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(MockDatabase)
			db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"http://a"}).Return(tt.row)

			entry, found, err := newTestPostgresStore(db, tt.ttl).Get(context.Background(), "http://a")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if found {
				assert.False(t, entry.IsSafe)
			}
		})
	}
}

func TestPostgresStore_Put(t *testing.T) {
	db := new(MockDatabase)
	entry := Entry{URL: "http://a", IsSafe: true, CheckedAt: fixedNow}
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "ON CONFLICT (url) DO UPDATE")
	}), []any{"http://a", true, fixedNow}).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, newTestPostgresStore(db, time.Hour).Put(context.Background(), entry))
	db.AssertExpectations(t)
}

func TestPostgresStore_PutError(t *testing.T) {
	db := new(MockDatabase)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("read only"))

	err := newTestPostgresStore(db, time.Hour).Put(context.Background(), Entry{URL: "http://a"})
	assert.ErrorContains(t, err, "failed to save url cache entry")
}
