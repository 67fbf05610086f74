package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin authorizes from the verified token claim only; it never looks
// at anything the client supplies outside the signature.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxIsAdminKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}
		if !IsAdminFromContext(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin privileges required",
				},
			})
			return
		}
		c.Next()
	}
}
