package posts

import (
	"context"
	"errors"
	"strings"

	"github.com/richxcame/postguard/internal/escalation"
	"github.com/richxcame/postguard/pkg/common"
	"github.com/richxcame/postguard/pkg/logger"
	"github.com/richxcame/postguard/pkg/pagination"
	"github.com/richxcame/postguard/pkg/validation"
	"go.uber.org/zap"
)

// Service handles post submission and read-only views
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new posts service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// Submit validates and stores a new Pending post
func (s *Service) Submit(ctx context.Context, username, text string) (*Post, error) {
	req := SubmitPostRequest{
		Username: strings.TrimSpace(username),
		Text:     strings.TrimSpace(text),
	}
	// whitespace-only fields fail "required" once trimmed
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, common.NewBadRequestError("validation failed", err)
	}
	username, text = req.Username, req.Text

	post, err := s.repo.CreatePost(ctx, username, text)
	if err != nil {
		return nil, common.NewInternalServerError("failed to submit post", err)
	}

	logger.WithContext(ctx).Info("post submitted",
		zap.Int64("post_id", post.ID),
		zap.String("username", username),
	)

	return post, nil
}

// GetPost returns one post
func (s *Service) GetPost(ctx context.Context, id int64) (*Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("post not found", err)
		}
		return nil, common.NewInternalServerError("failed to get post", err)
	}
	return post, nil
}

// GetUser returns one account
func (s *Service) GetUser(ctx context.Context, username string) (*escalation.Account, error) {
	account, err := s.repo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("user not found", err)
		}
		return nil, common.NewInternalServerError("failed to get user", err)
	}
	return account, nil
}

// ListRecentPosts returns the dashboard feed, newest first, and the total post count
func (s *Service) ListRecentPosts(ctx context.Context, limit, offset int) ([]*Post, int64, error) {
	limit, offset = clampPage(limit, offset)
	posts, total, err := s.repo.ListRecentPosts(ctx, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list posts", err)
	}
	return posts, total, nil
}

// ListUsers returns every account
func (s *Service) ListUsers(ctx context.Context) ([]*escalation.Account, error) {
	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, common.NewInternalServerError("failed to list users", err)
	}
	return accounts, nil
}

// ListUserPosts returns the posts of one user, newest first, and their count
func (s *Service) ListUserPosts(ctx context.Context, username string, limit, offset int) ([]*Post, int64, error) {
	if _, err := s.GetUser(ctx, username); err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)
	posts, total, err := s.repo.ListUserPosts(ctx, username, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list user posts", err)
	}
	return posts, total, nil
}

// Stats returns verdict counts
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get stats", err)
	}
	return stats, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
