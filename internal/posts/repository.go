package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/postguard/internal/escalation"
)

// Repository handles database operations for posts and user accounts
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new posts repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePost stores a Pending post and makes sure its author has an account row
func (r *Repository) CreatePost(ctx context.Context, username, text string) (*Post, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, status, fraud_count)
		VALUES ($1, 'Safe', 0)
		ON CONFLICT (username) DO NOTHING
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	p := &Post{Username: username, Text: text}
	err = tx.QueryRow(ctx, `
		INSERT INTO posts (username, text, status)
		VALUES ($1, $2, 'Pending')
		RETURNING id, created_at, status, reason
	`, username, text).Scan(&p.ID, &p.CreatedAt, &p.Status, &p.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit post: %w", err)
	}

	return p, nil
}

// GetPost retrieves a post by id
func (r *Repository) GetPost(ctx context.Context, id int64) (*Post, error) {
	query := `
		SELECT id, username, text, created_at, status, reason
		FROM posts
		WHERE id = $1
	`

	p := &Post{}
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Username, &p.Text, &p.CreatedAt, &p.Status, &p.Reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return p, nil
}

// ListRecentPosts returns the newest posts first and the total number of posts
func (r *Repository) ListRecentPosts(ctx context.Context, limit, offset int) ([]*Post, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := `
		SELECT id, username, text, created_at, status, reason
		FROM posts
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListUserPosts returns the newest posts of one user first and the user's post count
func (r *Repository) ListUserPosts(ctx context.Context, username string, limit, offset int) ([]*Post, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE username = $1`, username).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count user posts: %w", err)
	}

	query := `
		SELECT id, username, text, created_at, status, reason
		FROM posts
		WHERE username = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, username, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user posts: %w", err)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func scanPosts(rows pgx.Rows) ([]*Post, error) {
	defer rows.Close()

	posts := make([]*Post, 0)
	for rows.Next() {
		p := &Post{}
		if err := rows.Scan(&p.ID, &p.Username, &p.Text, &p.CreatedAt, &p.Status, &p.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}

	return posts, nil
}

// GetUser retrieves an account by username
func (r *Repository) GetUser(ctx context.Context, username string) (*escalation.Account, error) {
	query := `
		SELECT username, status, fraud_count, updated_at
		FROM users
		WHERE username = $1
	`

	a := &escalation.Account{}
	err := r.db.QueryRow(ctx, query, username).Scan(&a.Username, &a.Status, &a.FraudCount, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return a, nil
}

// ListUsers returns all accounts, escalated ones first
func (r *Repository) ListUsers(ctx context.Context) ([]*escalation.Account, error) {
	query := `
		SELECT username, status, fraud_count, updated_at
		FROM users
		ORDER BY (status = 'Red') DESC, fraud_count DESC, username
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	accounts := make([]*escalation.Account, 0)
	for rows.Next() {
		a := &escalation.Account{}
		if err := rows.Scan(&a.Username, &a.Status, &a.FraudCount, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// GetStats counts posts by status and escalated accounts
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Processing'),
			COUNT(*) FILTER (WHERE status = 'Safe'),
			COUNT(*) FILTER (WHERE status = 'FraudDetected'),
			(SELECT COUNT(*) FROM users WHERE status = 'Red')
		FROM posts
	`

	s := &Stats{}
	err := r.db.QueryRow(ctx, query).Scan(&s.Total, &s.Pending, &s.Processing, &s.Safe, &s.Fraud, &s.RedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return s, nil
}
