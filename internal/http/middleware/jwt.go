package middleware

import (
	"net/http"
	"strings"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT authenticates the request from an "Authorization: Bearer" header
// or a "token" query parameter and stores the user id in the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
