package posts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/common"
	"github.com/richxcame/postguard/pkg/middleware"
	"github.com/richxcame/postguard/pkg/pagination"
	"github.com/richxcame/postguard/pkg/validation"
)

// Handler handles HTTP requests for posts and accounts
type Handler struct {
	service *Service
}

// NewHandler creates a new posts handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitPost queues a post for detection
func (h *Handler) SubmitPost(c *gin.Context) {
	var req SubmitPostRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	post, err := h.service.Submit(c.Request.Context(), req.Username, req.Text)
	if err != nil {
		respondError(c, err, "failed to submit post")
		return
	}

	common.CreatedResponse(c, post)
}

// ListPosts returns the recent posts feed
func (h *Handler) ListPosts(c *gin.Context) {
	params := pagination.ParseParams(c)

	posts, total, err := h.service.ListRecentPosts(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list posts")
		return
	}

	common.SuccessResponseWithMeta(c, posts, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetPost returns one post with its current status
func (h *Handler) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get post")
		return
	}

	common.SuccessResponse(c, post)
}

// ListUsers returns all accounts
func (h *Handler) ListUsers(c *gin.Context) {
	accounts, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list users")
		return
	}

	common.SuccessResponse(c, accounts)
}

// GetUser returns one account
func (h *Handler) GetUser(c *gin.Context) {
	account, err := h.service.GetUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	common.SuccessResponse(c, account)
}

// ListUserPosts returns the posts of one user
func (h *Handler) ListUserPosts(c *gin.Context) {
	params := pagination.ParseParams(c)

	posts, total, err := h.service.ListUserPosts(c.Request.Context(), c.Param("username"), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list user posts")
		return
	}

	common.SuccessResponseWithMeta(c, posts, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetStats returns verdict counts
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// RegisterRoutes registers post and account routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	posts := rg.Group("/posts")
	{
		posts.POST("", h.SubmitPost)
		posts.GET("", h.ListPosts)
		posts.GET("/:id", h.GetPost)
	}

	users := rg.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:username", h.GetUser)
		users.GET("/:username/posts", h.ListUserPosts)
	}

	rg.GET("/stats", h.GetStats)
}

func respondError(c *gin.Context, err error, fallback string) {
	var valErr *validation.ValidationError
	if errors.As(err, &valErr) {
		middleware.RespondWithValidationError(c, valErr)
		return
	}
	if appErr, ok := common.AsAppError(err); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
