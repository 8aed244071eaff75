package middleware

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-tracker/internal/api/http/handler"
	"content-tracker/internal/model"
)

// RequireRoles admits operators whose token role is one of roles. Must run after JWTAuth.
func RequireRoles(log *zap.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(model.OperatorRoleKey)

		name, ok := role.(string)
		if ok && slices.Contains(roles, name) {
			c.Next()
			return
		}

		log.Warn("Ops request denied",
			zap.String("operator", fmt.Sprint(c.Value(model.OperatorIDKey))),
			zap.Any("role", role),
			zap.String("path", c.FullPath()),
		)

		c.AbortWithStatusJSON(http.StatusForbidden, handler.ResponseWithMessage{
			Status:  handler.StatusForbidden,
			Message: "operator role required",
		})
	}
}
