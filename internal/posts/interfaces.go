package posts

import (
	"context"

	"github.com/richxcame/postguard/internal/escalation"
)

// RepositoryInterface defines the storage operations used by Service
type RepositoryInterface interface {
	CreatePost(ctx context.Context, username, text string) (*Post, error)
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListRecentPosts(ctx context.Context, limit, offset int) ([]*Post, int64, error)
	ListUserPosts(ctx context.Context, username string, limit, offset int) ([]*Post, int64, error)
	GetUser(ctx context.Context, username string) (*escalation.Account, error)
	ListUsers(ctx context.Context) ([]*escalation.Account, error)
	GetStats(ctx context.Context) (*Stats, error)
}
