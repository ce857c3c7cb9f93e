package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type staffRows map[string]*models.Staff

func (s staffRows) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if id == "broken" {
		return nil, errors.New("database is locked")
	}
	staff, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return staff, nil
}

func serveAs(r *gin.Engine, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/staff/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCurrentStaffAppliesDemotion(t *testing.T) {
	rows := staffRows{"s1": {ID: "s1", Name: "Ana", Role: models.RoleStaff, Shift: models.ShiftMorning}}
	claims := &models.JWTClaims{StaffID: "s1", Role: models.RoleAdmin}
	r := newRouter(JWT(stubValidator{claims: claims}), CurrentStaff(rows), RequireRoles(models.RoleAdmin))
	r.DELETE("/staff/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serveAs(r, http.MethodDelete).Code)

	rows["s1"].Role = models.RoleAdmin
	assert.Equal(t, http.StatusNoContent, serveAs(r, http.MethodDelete).Code)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestCurrentStaffRejectsDeletedAccount(t *testing.T) {
	claims := &models.JWTClaims{StaffID: "gone", Role: models.RoleAdmin}
	r := newRouter(JWT(stubValidator{claims: claims}), CurrentStaff(staffRows{}))
	r.POST("/staff/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/staff/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serveAs(r, http.MethodPost).Code)
	assert.Equal(t, http.StatusOK, serveAs(r, http.MethodGet).Code)
}

func TestCurrentStaffStoreFailure(t *testing.T) {
	claims := &models.JWTClaims{StaffID: "broken", Role: models.RoleAdmin}
	r := newRouter(JWT(stubValidator{claims: claims}), CurrentStaff(staffRows{}))
	r.PUT("/staff/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serveAs(r, http.MethodPut)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Status, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}
