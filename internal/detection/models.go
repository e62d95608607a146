package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/richxcame/postguard/internal/escalation"
	"github.com/richxcame/postguard/internal/posts"
)

// Verdict is the final decision recorded for a post
type Verdict string

// Verdicts
const (
	VerdictFraud Verdict = "fraud"
	VerdictSafe  Verdict = "safe"
)

var (
	// ErrNotFound is returned when a post has no detection record
	ErrNotFound = errors.New("detection not found")
	// ErrClaimLost is returned by Resolve when the post is no longer held by
	// the resolving claim
	ErrClaimLost = errors.New("post is no longer claimed")
	// ErrNotFinal is returned by Resolve for a status that is not a verdict
	ErrNotFinal = errors.New("resolution status is not a final verdict")
)

// PendingPost is a post waiting for a verdict
type PendingPost struct {
	ID       int64
	Username string
	Text     string
}

// Record is the audit entry written once per resolved post
type Record struct {
	ID            int64     `json:"id"`
	PostID        int64     `json:"post_id"`
	Username      string    `json:"username"`
	DetectedAt    time.Time `json:"detected_at"`
	MLProbability float64   `json:"ml_probability"`
	RuleReasons   []string  `json:"rule_reasons"`
	UnsafeLink    bool      `json:"unsafe_link"`
	FinalVerdict  Verdict   `json:"final_verdict"`
}

// Resolution is everything written for one post in a single transaction
type Resolution struct {
	PostID              int64
	Username            string
	ClaimedAt           time.Time
	Status              posts.Status
	Reason              string
	Record              Record
	EscalationThreshold int
}

// Validate rejects resolutions that would leave the post without a verdict
func (r Resolution) Validate() error {
	if !r.Status.Terminal() {
		return fmt.Errorf("%w: %q", ErrNotFinal, r.Status)
	}
	return nil
}

// Fraud reports whether the resolution is a fraud verdict
func (r Resolution) Fraud() bool {
	return r.Record.FinalVerdict == VerdictFraud
}

// Outcome describes the account change made by a resolution. Previous is nil
// when the account was created by it.
type Outcome struct {
	RecordID int64
	Previous *escalation.Account
	Account  escalation.Account
	Changed  bool
}

// Escalated reports whether the resolution moved the account from Safe to Red
func (o *Outcome) Escalated() bool {
	return escalation.Escalated(o.Previous, o.Account)
}
