package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/postguard/internal/escalation"
)

// Repository is the Postgres Store
type Repository struct {
	db *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new detection repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// PendingPosts implements Store
func (r *Repository) PendingPosts(ctx context.Context) ([]PendingPost, error) {
	query := `
		SELECT id, username, text
		FROM posts
		WHERE status = 'Pending'
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending posts: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingPost, 0)
	for rows.Next() {
		var p PendingPost
		if err := rows.Scan(&p.ID, &p.Username, &p.Text); err != nil {
			return nil, fmt.Errorf("failed to scan pending post: %w", err)
		}
		pending = append(pending, p)
	}

	return pending, rows.Err()
}

// Claim implements Store
func (r *Repository) Claim(ctx context.Context, postID int64) (time.Time, bool, error) {
	query := `
		UPDATE posts
		SET status = 'Processing', claimed_at = clock_timestamp()
		WHERE id = $1 AND status = 'Pending'
		RETURNING claimed_at
	`

	var claimedAt time.Time
	err := r.db.QueryRow(ctx, query, postID).Scan(&claimedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to claim post: %w", err)
	}

	return claimedAt, true, nil
}

// Release implements Store
func (r *Repository) Release(ctx context.Context, postID int64, claimedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = 'Pending', claimed_at = NULL
		WHERE id = $1 AND status = 'Processing' AND claimed_at = $2
	`

	if _, err := r.db.Exec(ctx, query, postID, claimedAt); err != nil {
		return fmt.Errorf("failed to release post: %w", err)
	}
	return nil
}

// ReleaseStaleClaims implements Store
func (r *Repository) ReleaseStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE posts
		SET status = 'Pending', claimed_at = NULL
		WHERE status = 'Processing'
		  AND claimed_at < NOW() - make_interval(secs => $1)
	`

	tag, err := r.db.Exec(ctx, query, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to release stale claims: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Resolve implements Store. The account row is locked for the duration of the
// transaction so concurrent verdicts for one user are applied in sequence.
func (r *Repository) Resolve(ctx context.Context, res Resolution) (*Outcome, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE posts
		SET status = $2, reason = $3, claimed_at = NULL
		WHERE id = $1 AND status = 'Processing' AND claimed_at = $4
	`, res.PostID, string(res.Status), res.Reason, res.ClaimedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update post status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrClaimLost
	}

	outcome := &Outcome{}
	rec := res.Record
	err = tx.QueryRow(ctx, `
		INSERT INTO detections (post_id, username, detected_at, ml_probability, rule_reasons, unsafe_link, final_verdict)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.PostID, rec.Username, rec.DetectedAt, rec.MLProbability,
		strings.Join(rec.RuleReasons, ","), rec.UnsafeLink, string(rec.FinalVerdict),
	).Scan(&outcome.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert detection: %w", err)
	}

	tag, err = tx.Exec(ctx, `
		INSERT INTO users (username, status, fraud_count)
		VALUES ($1, 'Safe', 0)
		ON CONFLICT (username) DO NOTHING
	`, res.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	created := tag.RowsAffected() == 1

	current := escalation.Account{}
	err = tx.QueryRow(ctx, `
		SELECT username, status, fraud_count, updated_at
		FROM users
		WHERE username = $1
		FOR UPDATE
	`, res.Username).Scan(&current.Username, &current.Status, &current.FraudCount, &current.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	if !created {
		prev := current
		outcome.Previous = &prev
	}

	next, changed := escalation.Apply(res.Username, outcome.Previous, res.Fraud(), res.EscalationThreshold)
	outcome.Account = next
	outcome.Changed = changed

	if changed {
		err = tx.QueryRow(ctx, `
			UPDATE users
			SET status = $2, fraud_count = $3, updated_at = NOW()
			WHERE username = $1
			RETURNING updated_at
		`, res.Username, string(next.Status), next.FraudCount).Scan(&outcome.Account.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit resolution: %w", err)
	}

	return outcome, nil
}

// GetDetection implements Store
func (r *Repository) GetDetection(ctx context.Context, postID int64) (*Record, error) {
	query := `
		SELECT id, post_id, username, detected_at, ml_probability, rule_reasons, unsafe_link, final_verdict
		FROM detections
		WHERE post_id = $1
	`

	rec := &Record{}
	var reasons string
	err := r.db.QueryRow(ctx, query, postID).Scan(
		&rec.ID, &rec.PostID, &rec.Username, &rec.DetectedAt, &rec.MLProbability,
		&reasons, &rec.UnsafeLink, &rec.FinalVerdict,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}

	rec.RuleReasons = splitReasons(reasons)
	return rec, nil
}

func splitReasons(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
