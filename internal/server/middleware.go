package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// APITokenRequired checks the bearer token when API_TOKEN is configured.
// With no token configured the API is open.
func (s *Server) APITokenRequired() gin.HandlerFunc {
	expected := strings.TrimSpace(s.cfg.APIToken)
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		parts := strings.Fields(strings.TrimSpace(c.GetHeader("Authorization")))
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
