package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxOffset keeps offset+limit arithmetic far from overflow
	MaxOffset = 1_000_000
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// Page is an offset-based page request
type Page struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePage reads ?page= (1-based) and ?limit= with the usual caps.
// ?offset= takes precedence over page when both are present.
func ParsePage(c *gin.Context) Page {
	limit := ParseInt(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)), DefaultPageSize)
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	page := ParseInt(c.DefaultQuery("page", "1"), 1)
	if page < 1 {
		page = 1
	}
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	offset := (page - 1) * limit

	if raw, ok := c.GetQuery("offset"); ok {
		if o := ParseInt(raw, -1); o >= 0 {
			offset = min(o, MaxOffset)
			page = offset/limit + 1
		}
	}

	return Page{Page: page, Limit: limit, Offset: offset}
}
