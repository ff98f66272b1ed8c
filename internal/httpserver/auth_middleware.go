package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"worktracker/pkg/util"
)

// RequireAuth validates the bearer token and stores its subject on the
// context. With an empty secret auth is disabled and every request passes.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		tokenStr := util.ExtractToken(c.Request)
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		subject, err := util.ParseToken(tokenStr, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("subject", subject)
		c.Next()
	}
}
