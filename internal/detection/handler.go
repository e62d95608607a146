package detection

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/common"
	"github.com/richxcame/postguard/pkg/logger"
	"go.uber.org/zap"
)

// Handler exposes detection passes and audit records over HTTP
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler creates a new detection handler
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// RunPass runs one detection pass on demand
func (h *Handler) RunPass(c *gin.Context) {
	resolved, err := h.orchestrator.RunPass(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("on-demand detection pass failed", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "detection pass failed")
		return
	}

	common.SuccessResponse(c, gin.H{"resolved": resolved})
}

// GetPostDetection returns the detection record of a post
func (h *Handler) GetPostDetection(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || postID <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid post id")
		return
	}

	record, err := h.orchestrator.GetDetection(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "detection not found")
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get detection")
		return
	}

	common.SuccessResponse(c, record)
}

// RegisterRoutes registers detection routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/detections/run", h.RunPass)
	rg.GET("/posts/:id/detection", h.GetPostDetection)
}
