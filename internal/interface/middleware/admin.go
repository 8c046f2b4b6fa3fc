package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playsquad/playsquad-api/pkg/response"
)

// AdminOnly rejects callers whose session does not carry the admin flag.
// Must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			response.Error(c, http.StatusForbidden, "admin access required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
