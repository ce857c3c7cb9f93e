package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
	"github.com/noah-isme/epiviu-api/pkg/response"
)

// RequireRoles only lets through staff holding one of the roles.
func RequireRoles(roles ...models.StaffRole) gin.HandlerFunc {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "administrator role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
