package detection

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/richxcame/postguard/internal/escalation"
	"github.com/richxcame/postguard/internal/posts"
)

type memPost struct {
	ID        int64
	Username  string
	Text      string
	Status    posts.Status
	Reason    string
	ClaimedAt time.Time
}

// memStore is an in-memory Store with the same transactional semantics as
// Repository, used to test the orchestrator without a database.
type memStore struct {
	mu         sync.Mutex
	posts      map[int64]*memPost
	records    map[int64]Record
	users      map[string]escalation.Account
	nextPostID int64
	nextRecord int64
	nextClaim  int64

	resolveErr    map[int64]error
	claimedByPeer map[int64]bool
	staleCalls    []time.Duration
	released      []int64
}

func newMemStore() *memStore {
	return &memStore{
		posts:         make(map[int64]*memPost),
		records:       make(map[int64]Record),
		users:         make(map[string]escalation.Account),
		resolveErr:    make(map[int64]error),
		claimedByPeer: make(map[int64]bool),
	}
}

// submit mirrors posts.Repository.CreatePost
func (s *memStore) submit(username, text string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	s.posts[s.nextPostID] = &memPost{ID: s.nextPostID, Username: username, Text: text, Status: posts.StatusPending}
	if _, ok := s.users[username]; !ok {
		s.users[username] = escalation.NewAccount(username)
	}
	return s.nextPostID
}

func (s *memStore) post(id int64) memPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.posts[id]
}

func (s *memStore) user(username string) (escalation.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[username]
	return a, ok
}

func (s *memStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) PendingPosts(ctx context.Context) ([]PendingPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]PendingPost, 0)
	for _, p := range s.posts {
		if p.Status == posts.StatusPending {
			pending = append(pending, PendingPost{ID: p.ID, Username: p.Username, Text: p.Text})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

// claimLocked moves p to Processing under a fresh claim time
func (s *memStore) claimLocked(p *memPost) time.Time {
	s.nextClaim++
	p.Status = posts.StatusProcessing
	p.ClaimedAt = time.Unix(0, s.nextClaim)
	return p.ClaimedAt
}

// reclaim simulates another pass sweeping a stale claim and claiming the post again
func (s *memStore) reclaim(postID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimLocked(s.posts[postID])
}

func (s *memStore) Claim(ctx context.Context, postID int64) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.Status != posts.StatusPending {
		return time.Time{}, false, nil
	}
	if s.claimedByPeer[postID] {
		s.claimLocked(p)
		return time.Time{}, false, nil
	}
	return s.claimLocked(p), true, nil
}

func (s *memStore) Resolve(ctx context.Context, res Resolution) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveErr[res.PostID]; err != nil {
		return nil, err
	}

	p, ok := s.posts[res.PostID]
	if !ok || p.Status != posts.StatusProcessing || !p.ClaimedAt.Equal(res.ClaimedAt) {
		return nil, ErrClaimLost
	}

	s.nextRecord++
	rec := res.Record
	rec.ID = s.nextRecord

	outcome := &Outcome{RecordID: rec.ID}
	current, exists := s.users[res.Username]
	if exists {
		prev := current
		outcome.Previous = &prev
	}
	next, changed := escalation.Apply(res.Username, outcome.Previous, res.Fraud(), res.EscalationThreshold)
	outcome.Account = next
	outcome.Changed = changed

	p.Status = res.Status
	p.Reason = res.Reason
	p.ClaimedAt = time.Time{}
	s.records[res.PostID] = rec
	if changed {
		s.users[res.Username] = next
	}
	return outcome, nil
}

func (s *memStore) Release(ctx context.Context, postID int64, claimedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = append(s.released, postID)
	if p, ok := s.posts[postID]; ok && p.Status == posts.StatusProcessing && p.ClaimedAt.Equal(claimedAt) {
		p.Status = posts.StatusPending
		p.ClaimedAt = time.Time{}
	}
	return nil
}

func (s *memStore) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleCalls = append(s.staleCalls, olderThan)
	return 0, nil
}

func (s *memStore) GetDetection(ctx context.Context, postID int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}
