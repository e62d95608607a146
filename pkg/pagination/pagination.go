package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/postguard/pkg/common"
)

const (
	// DefaultLimit is the page size when none is requested
	DefaultLimit = 50
	// MaxLimit caps the page size
	MaxLimit = 200
	// DefaultOffset is the starting offset
	DefaultOffset = 0
)

// Params holds pagination parameters
type Params struct {
	Limit  int
	Offset int
}

// ParseParams extracts limit and offset from the query string. Invalid values
// fall back to the defaults and limits above MaxLimit are capped.
func ParseParams(c *gin.Context) Params {
	params := Params{Limit: DefaultLimit, Offset: DefaultOffset}

	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		params.Limit = limit
		if params.Limit > MaxLimit {
			params.Limit = MaxLimit
		}
	}

	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset >= 0 {
		params.Offset = offset
	}

	return params
}

// BuildMeta creates pagination metadata for a response
func BuildMeta(limit, offset int, total int64) *common.Meta {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return &common.Meta{
		Limit:      limit,
		Offset:     offset,
		Total:      total,
		TotalPages: totalPages,
	}
}
