package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
	"github.com/noah-isme/epiviu-api/pkg/response"
)

// StaffLoader loads the staff row behind a token.
type StaffLoader interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// CurrentStaff reloads the staff row of the token holder on mutating
// requests, so demotions and deletions apply before the token expires. Reads
// keep the claims as issued. Must run after JWT.
func CurrentStaff(loader StaffLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		staff, err := loader.FindByID(c.Request.Context(), claims.StaffID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load account"))
			}
			c.Abort()
			return
		}

		fresh := *claims
		fresh.Name = staff.Name
		fresh.Role = staff.Role
		fresh.Shift = staff.Shift
		c.Set(ContextUserKey, &fresh)
		c.Next()
	}
}
