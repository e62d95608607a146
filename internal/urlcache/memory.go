package urlcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps entries in a bounded, expiring LRU. Contents are lost on restart.
type MemoryStore struct {
	data *expirable.LRU[string, Entry]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding up to capacity entries for ttl each.
// A zero ttl keeps entries until they are evicted by size.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data: expirable.NewLRU[string, Entry](capacity, nil, ttl),
	}
}

func (s *MemoryStore) Get(ctx context.Context, url string) (Entry, bool, error) {
	e, ok := s.data.Get(url)
	return e, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, entry Entry) error {
	s.data.Add(entry.URL, entry)
	return nil
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	return s.data.Len()
}
