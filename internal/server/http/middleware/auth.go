package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
)

// PeerIDContextKey is a gin context key for the calling node id.
const PeerIDContextKey = "peerID"

// ClusterAuth rejects internal RPC calls without a valid cluster token. It
// lets every call through when no cluster secret is configured.
func ClusterAuth(tokens pkgAuth.TokenStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil || !tokens.Enabled() {
			c.Next()
			return
		}

		token := strings.TrimSpace(c.GetHeader(pkgAuth.TokenHeader))
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		peerID, err := tokens.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(PeerIDContextKey, peerID)
		c.Next()
	}
}
