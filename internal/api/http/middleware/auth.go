package middleware

import (
	"crypto/ecdsa"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"content-tracker/internal/api/http/handler"
	"content-tracker/internal/model"
	"content-tracker/pkg/jwt"
)

// JWTAuth verifies the ops token from the Authorization header, the "access" cookie
// or, for WebSocket clients that cannot set headers, the "token" query parameter.
func JWTAuth(publicKey *ecdsa.PublicKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenStr == "" {
			if cookie, err := c.Cookie("access"); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ResponseWithMessage{
				Status:  handler.StatusNotPermitted,
				Message: "missing access token",
			})

			return
		}

		op, err := jwt.ValidateOperatorToken(tokenStr, publicKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.ResponseWithMessage{
				Status:  handler.StatusNotPermitted,
				Message: "invalid or expired token",
			})

			return
		}

		c.Set(model.OperatorIDKey, op.ID)
		c.Set(model.OperatorRoleKey, op.Role)

		c.Next()
	}
}
