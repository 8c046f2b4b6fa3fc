package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/playsquad/playsquad-api/pkg/helpers"
	"github.com/playsquad/playsquad-api/pkg/response"
)

// Auth validates the access token cookie and ensures an active session
// exists in Redis with a matching session id. On success it sets userID,
// userName, userEmail, and isAdmin in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			response.Error(c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}

		key := "user:session:" + claims.UserID
		data, err := rdb.HGetAll(c.Request.Context(), key).Result()
		if err != nil || len(data) == 0 {
			response.Error(c, http.StatusUnauthorized, "session not found", nil)
			c.Abort()
			return
		}
		// A token minted for an older session is no longer valid.
		if data["sid"] != claims.SessionID {
			response.Error(c, http.StatusUnauthorized, "session expired", nil)
			c.Abort()
			return
		}

		isAdmin, _ := strconv.ParseBool(data["is_admin"])
		c.Set("userID", data["user_id"])
		c.Set("userName", data["name"])
		c.Set("userEmail", data["email"])
		c.Set("isAdmin", isAdmin)
		c.Next()
	}
}
