package detection

import (
	"context"
	"time"

	"github.com/richxcame/postguard/internal/features"
)

// Store is the persistence used by the orchestrator
type Store interface {
	// PendingPosts returns every Pending post in ascending id order
	PendingPosts(ctx context.Context) ([]PendingPost, error)
	// Claim moves a post from Pending to Processing and returns the claim time,
	// which identifies the claim. It reports false when the post was not Pending.
	Claim(ctx context.Context, postID int64) (time.Time, bool, error)
	// Resolve writes the verdict, the detection record and the account change
	// atomically. It fails with ErrClaimLost unless the post is still held by
	// the claim in res.ClaimedAt.
	Resolve(ctx context.Context, res Resolution) (*Outcome, error)
	// Release returns a post to Pending if it is still held by the given claim
	Release(ctx context.Context, postID int64, claimedAt time.Time) error
	// ReleaseStaleClaims returns posts claimed longer than olderThan to Pending
	ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
	GetDetection(ctx context.Context, postID int64) (*Record, error)
}

// FeatureExtractor builds classifier input for a post
type FeatureExtractor interface {
	Extract(ctx context.Context, username, text string) features.FeatureVector
}

// RuleEvaluator applies the keyword and pattern rules
type RuleEvaluator interface {
	Evaluate(text string) (bool, []string)
}

// LinkChecker reports whether a URL is safe
type LinkChecker interface {
	IsSafe(ctx context.Context, rawURL string) bool
}
