package urlcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockChecker counts external checks
type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, url string) (Entry, bool, error) {
	return Entry{}, false, errors.New("store unavailable")
}

func (failingStore) Put(ctx context.Context, entry Entry) error {
	return errors.New("store unavailable")
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(store Store, checker Checker, enabled bool) *Cache {
	return NewCache(store, checker, Options{
		Enabled: enabled,
		Logger:  zap.NewNop(),
		Now:     func() time.Time { return fixedNow },
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "http://www.example.com", Normalize("www.example.com"))
	assert.Equal(t, "https://example.com", Normalize("https://example.com"))
	assert.Equal(t, "http://bit.ly/x", Normalize("http://bit.ly/x"))
}

func TestIsSafe_MissCallsCheckerOnceThenHits(t *testing.T) {
	checker := new(MockChecker)
	checker.On("Check", mock.Anything, "http://evil.test").Return(false, nil).Once()

	store := NewMemoryStore(10, 0)
	cache := newTestCache(store, checker, true)
	ctx := context.Background()

	assert.False(t, cache.IsSafe(ctx, "http://evil.test"))
	assert.False(t, cache.IsSafe(ctx, "http://evil.test"))

	checker.AssertNumberOfCalls(t, "Check", 1)
	entry, found, err := store.Get(ctx, "http://evil.test")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, entry.IsSafe)
	assert.Equal(t, fixedNow, entry.CheckedAt)
}

func TestIsSafe_HitSkipsChecker(t *testing.T) {
	checker := new(MockChecker)
	store := NewMemoryStore(10, 0)
	require.NoError(t, store.Put(context.Background(), Entry{URL: "http://known.test", IsSafe: true, CheckedAt: fixedNow}))

	cache := newTestCache(store, checker, true)

	assert.True(t, cache.IsSafe(context.Background(), "http://known.test"))
	checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestIsSafe_DisabledReturnsSafeWithoutCaching(t *testing.T) {
	checker := new(MockChecker)
	store := NewMemoryStore(10, 0)
	cache := newTestCache(store, checker, false)

	assert.False(t, cache.Enabled())
	assert.True(t, cache.IsSafe(context.Background(), "http://anything.test"))
	assert.Equal(t, 0, store.Len())
	checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestIsSafe_DisabledStillServesCachedVerdict(t *testing.T) {
	store := NewMemoryStore(10, 0)
	require.NoError(t, store.Put(context.Background(), Entry{URL: "http://evil.test", IsSafe: false, CheckedAt: fixedNow}))

	cache := newTestCache(store, nil, true)

	assert.False(t, cache.Enabled())
	assert.False(t, cache.IsSafe(context.Background(), "http://evil.test"))
}

func TestIsSafe_CheckerErrorFailsOpenAndCaches(t *testing.T) {
	checker := new(MockChecker)
	checker.On("Check", mock.Anything, "http://slow.test").Return(true, context.DeadlineExceeded).Once()

	store := NewMemoryStore(10, 0)
	cache := newTestCache(store, checker, true)

	assert.True(t, cache.IsSafe(context.Background(), "http://slow.test"))
	assert.True(t, cache.IsSafe(context.Background(), "http://slow.test"))

	checker.AssertNumberOfCalls(t, "Check", 1)
	entry, found, _ := store.Get(context.Background(), "http://slow.test")
	require.True(t, found)
	assert.True(t, entry.IsSafe)
}

func TestIsSafe_CheckerErrorReportingUnsafeStillFailsOpen(t *testing.T) {
	checker := CheckerFunc(func(ctx context.Context, url string) (bool, error) {
		return false, errors.New("boom")
	})
	cache := newTestCache(NewMemoryStore(10, 0), checker, true)

	assert.True(t, cache.IsSafe(context.Background(), "http://x.test"))
}

func TestIsSafe_BrokenStoreNeverBlocks(t *testing.T) {
	checker := new(MockChecker)
	checker.On("Check", mock.Anything, "http://evil.test").Return(false, nil)

	cache := newTestCache(failingStore{}, checker, true)

	assert.False(t, cache.IsSafe(context.Background(), "http://evil.test"))
	assert.True(t, newTestCache(failingStore{}, checker, false).IsSafe(context.Background(), "http://evil.test"))
}

func TestIsSafe_ConcurrentMissesShareOneCheck(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	checker := CheckerFunc(func(ctx context.Context, url string) (bool, error) {
		calls.Add(1)
		<-release
		return false, nil
	})
	cache := newTestCache(NewMemoryStore(10, 0), checker, true)

	const callers = 8
	var started, wg sync.WaitGroup
	results := make([]bool, callers)
	started.Add(callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i] = cache.IsSafe(context.Background(), "http://evil.test")
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.False(t, r)
	}
	assert.LessOrEqual(t, calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(10, 20*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, Entry{URL: "http://a.test", IsSafe: false}))

	_, found, _ := store.Get(ctx, "http://a.test")
	assert.True(t, found)

	time.Sleep(60 * time.Millisecond)
	_, found, _ = store.Get(ctx, "http://a.test")
	assert.False(t, found)
}

func TestMemoryStore_BoundedSize(t *testing.T) {
	store := NewMemoryStore(2, 0)
	ctx := context.Background()
	for _, u := range []string{"http://a", "http://b", "http://c"} {
		require.NoError(t, store.Put(ctx, Entry{URL: u, IsSafe: true}))
	}

	assert.Equal(t, 2, store.Len())
	_, found, _ := store.Get(ctx, "http://a")
	assert.False(t, found)
}
