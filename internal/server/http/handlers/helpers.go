package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/middleware"
)

// CallerID returns the authenticated peer node id, or 0 when unauthenticated.
func CallerID(c *gin.Context) int {
	val, ok := c.Get(middleware.PeerIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int)
	return id
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: err.Error()})
}
