package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// actorFromContext returns the authenticated operator identity set by the
// JWT middleware, falling back to "unknown" on unauthenticated routes
func actorFromContext(c *gin.Context) string {
	if email, ok := c.Get("operatorEmail"); ok {
		if s, ok := email.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// paginationParams reads page/limit query parameters with sane defaults
func paginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	return page, limit
}
