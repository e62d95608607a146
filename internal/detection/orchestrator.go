// Package detection runs detection passes: it claims Pending posts, combines
// classifier, rule and link signals into a verdict and records the result.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/richxcame/postguard/internal/classifier"
	"github.com/richxcame/postguard/internal/features"
	"github.com/richxcame/postguard/internal/posts"
	"github.com/richxcame/postguard/internal/urlcache"
	"github.com/richxcame/postguard/pkg/events"
	"github.com/richxcame/postguard/pkg/logger"
	"github.com/richxcame/postguard/pkg/textutil"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of an Orchestrator
type Dependencies struct {
	Store     Store
	Extractor FeatureExtractor
	Scorer    classifier.Scorer
	Rules     RuleEvaluator
	Links     LinkChecker
	Publisher events.Publisher
}

// Options configures an Orchestrator
type Options struct {
	// ProbabilityThreshold is the classifier score at which a post is fraud
	ProbabilityThreshold float64

	// EscalationThreshold is the fraud count that turns an account Red.
	// Values below 1 act as 1.
	EscalationThreshold int

	// ClaimTimeout is how long a post may stay Processing before a later pass
	// returns it to Pending. Zero disables the sweep.
	ClaimTimeout time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// Assessment is the evaluation of one post before it is written
type Assessment struct {
	Features    features.FeatureVector
	Signals     Signals
	Fraud       bool
	Reasons     []string
	CheckedURLs []string
}

// Orchestrator runs detection passes. Passes never overlap within one
// Orchestrator; concurrent instances coordinate through Store.Claim.
type Orchestrator struct {
	store     Store
	extractor FeatureExtractor
	scorer    classifier.Scorer
	rules     RuleEvaluator
	links     LinkChecker
	publisher events.Publisher

	probabilityThreshold float64
	escalationThreshold  int
	claimTimeout         time.Duration
	logger               *zap.Logger
	now                  func() time.Time

	mu sync.Mutex
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Orchestrator{
		store:                deps.Store,
		extractor:            deps.Extractor,
		scorer:               deps.Scorer,
		rules:                deps.Rules,
		links:                deps.Links,
		publisher:            deps.Publisher,
		probabilityThreshold: opts.ProbabilityThreshold,
		escalationThreshold:  opts.EscalationThreshold,
		claimTimeout:         opts.ClaimTimeout,
		logger:               opts.Logger,
		now:                  opts.Now,
	}
}

// RunPass processes every Pending post in ascending id order and returns how
// many were resolved. A post that fails is released and the pass moves on;
// such failures are joined into the returned error.
func (o *Orchestrator) RunPass(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	defer func() { passDuration.Observe(time.Since(start).Seconds()) }()

	if o.claimTimeout > 0 {
		released, err := o.store.ReleaseStaleClaims(ctx, o.claimTimeout)
		if err != nil {
			o.logger.Warn("failed to release stale claims", zap.Error(err))
		} else if released > 0 {
			o.logger.Info("released stale claims", zap.Int64("count", released))
		}
	}

	pending, err := o.store.PendingPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending posts: %w", err)
	}

	resolved := 0
	var errs []error
	for _, post := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		ok, err := o.processPost(ctx, post)
		if err != nil {
			postsFailed.Inc()
			o.logger.Error("failed to resolve post",
				zap.Int64("post_id", post.ID),
				zap.String("username", post.Username),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if ok {
			resolved++
		}
	}

	if len(pending) > 0 {
		o.logger.Info("detection pass completed",
			zap.Int("pending", len(pending)),
			zap.Int("resolved", resolved),
			zap.Duration("duration", time.Since(start)),
		)
	}

	return resolved, errors.Join(errs...)
}

func (o *Orchestrator) processPost(ctx context.Context, post PendingPost) (bool, error) {
	claimedAt, claimed, err := o.store.Claim(ctx, post.ID)
	if err != nil {
		return false, fmt.Errorf("claim post %d: %w", post.ID, err)
	}
	if !claimed {
		claimsSkipped.Inc()
		o.logger.Debug("post no longer pending, skipping", zap.Int64("post_id", post.ID))
		return false, nil
	}

	assessment := o.Assess(ctx, post.Username, post.Text)
	res := o.resolution(post, assessment)
	res.ClaimedAt = claimedAt

	outcome, err := o.store.Resolve(ctx, res)
	if errors.Is(err, ErrClaimLost) {
		claimsSkipped.Inc()
		o.logger.Debug("claim lost before resolution", zap.Int64("post_id", post.ID))
		return false, nil
	}
	if err != nil {
		if releaseErr := o.store.Release(context.WithoutCancel(ctx), post.ID, claimedAt); releaseErr != nil {
			o.logger.Error("failed to release post", zap.Int64("post_id", post.ID), zap.Error(releaseErr))
		}
		return false, fmt.Errorf("resolve post %d: %w", post.ID, err)
	}

	postsProcessed.WithLabelValues(string(res.Record.FinalVerdict)).Inc()
	if assessment.Signals.UnsafeLink {
		unsafeLinks.Inc()
	}

	if outcome.Escalated() {
		accountsEscalated.Inc()
		o.logger.Warn("account escalated",
			zap.String("username", post.Username),
			zap.Int("fraud_count", outcome.Account.FraudCount),
			zap.Int64("post_id", post.ID),
		)
		event := events.AccountEscalated{
			Username:    post.Username,
			FraudCount:  outcome.Account.FraudCount,
			PostID:      post.ID,
			EscalatedAt: o.now().UTC(),
		}
		if err := o.publisher.PublishAccountEscalated(ctx, event); err != nil {
			o.logger.Warn("failed to publish escalation", zap.String("username", post.Username), zap.Error(err))
		}
	}

	o.logger.Debug("post resolved",
		zap.Int64("post_id", post.ID),
		zap.String("status", string(res.Status)),
		zap.String("reason", res.Reason),
		zap.Strings("checked_urls", assessment.CheckedURLs),
	)

	return true, nil
}

// Assess evaluates a post without writing anything
func (o *Orchestrator) Assess(ctx context.Context, username, text string) Assessment {
	fv := o.extractor.Extract(ctx, username, text)
	flagged, ruleReasons := o.rules.Evaluate(text)

	unsafe, checked := o.checkLinks(ctx, text)

	signals := Signals{
		Probability:  o.scorer.Score(fv),
		RulesFlagged: flagged,
		RuleReasons:  ruleReasons,
		UnsafeLink:   unsafe,
	}
	fraud, reasons := Fuse(signals, o.probabilityThreshold)

	return Assessment{
		Features:    fv,
		Signals:     signals,
		Fraud:       fraud,
		Reasons:     reasons,
		CheckedURLs: checked,
	}
}

// checkLinks checks each distinct link once and stops at the first unsafe one
func (o *Orchestrator) checkLinks(ctx context.Context, text string) (bool, []string) {
	seen := make(map[string]struct{})
	var checked []string

	for _, token := range textutil.LinkTokens(text) {
		u := urlcache.Normalize(token)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		checked = append(checked, u)

		if !o.links.IsSafe(ctx, u) {
			return true, checked
		}
	}

	return false, checked
}

func (o *Orchestrator) resolution(post PendingPost, a Assessment) Resolution {
	status, verdict := posts.StatusSafe, VerdictSafe
	if a.Fraud {
		status, verdict = posts.StatusFraudDetected, VerdictFraud
	}

	ruleReasons := a.Signals.RuleReasons
	if ruleReasons == nil {
		ruleReasons = []string{}
	}

	return Resolution{
		PostID:   post.ID,
		Username: post.Username,
		Status:   status,
		Reason:   FormatReason(a.Reasons),
		Record: Record{
			PostID:        post.ID,
			Username:      post.Username,
			DetectedAt:    o.now().UTC(),
			MLProbability: a.Signals.Probability,
			RuleReasons:   ruleReasons,
			UnsafeLink:    a.Signals.UnsafeLink,
			FinalVerdict:  verdict,
		},
		EscalationThreshold: o.escalationThreshold,
	}
}

// GetDetection returns the audit record of a resolved post
func (o *Orchestrator) GetDetection(ctx context.Context, postID int64) (*Record, error) {
	return o.store.GetDetection(ctx, postID)
}
