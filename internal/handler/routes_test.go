package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/service"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
)

type authServiceMock struct{}

func (authServiceMock) Login(ctx context.Context, req service.LoginRequest) (*service.LoginResponse, error) {
	if req.Password != "secret1" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &service.LoginResponse{AccessToken: "admin-token"}, nil
}

func (authServiceMock) ChangePassword(ctx context.Context, staffID string, req service.ChangePasswordRequest) error {
	return nil
}

type sectorServiceMock struct{}

func (sectorServiceMock) List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error) {
	return []models.Sector{}, nil
}

func (sectorServiceMock) Create(ctx context.Context, req service.CreateSectorRequest) (*models.Sector, error) {
	return &models.Sector{ID: "sec-9", Name: req.Name, StaffID: req.StaffID}, nil
}

func (sectorServiceMock) Update(ctx context.Context, id string, req service.UpdateSectorRequest) (*models.Sector, error) {
	return &models.Sector{ID: id, StaffID: req.StaffID}, nil
}

func (sectorServiceMock) Delete(ctx context.Context, id string) error { return nil }

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type staffRowsStub map[string]*models.Staff

func (s staffRowsStub) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	staff, ok := s[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return staff, nil
}

type auditSpy struct {
	actions []string
}

func (a *auditSpy) Record(ctx context.Context, entry service.AuditEntry) {
	a.actions = append(a.actions, entry.Action+":"+entry.ResourceID)
}

func newTestRouter(audit *auditSpy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, "/api", Handlers{
		Auth:    NewAuthHandler(authServiceMock{}),
		Staff:   NewStaffHandler(&staffServiceMock{created: &models.Staff{ID: "st-9"}}),
		Sectors: NewSectorHandler(sectorServiceMock{}),
		Visits:  NewVisitHandler(&visitServiceMock{status: models.ToggleRemoved}),
		Reports: NewReportHandler(&reportServiceMock{}, nil),
		Metrics: NewMetricsHandler(service.NewMetricsService(), nil),
	}, RouteDeps{
		Tokens: tokenStub{
			"admin-token":   {StaffID: "st-admin", Role: models.RoleAdmin},
			"staff-token":   {StaffID: "st-1", Role: models.RoleStaff},
			"demoted-token": {StaffID: "st-demoted", Role: models.RoleAdmin},
			"deleted-token": {StaffID: "st-deleted", Role: models.RoleAdmin},
		},
		Staff: staffRowsStub{
			"st-admin":   {ID: "st-admin", Role: models.RoleAdmin},
			"st-1":       {ID: "st-1", Role: models.RoleStaff},
			"st-demoted": {ID: "st-demoted", Role: models.RoleStaff},
		},
		Audit: audit,
	})
	return r
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutesRequireToken(t *testing.T) {
	r := newTestRouter(&auditSpy{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/data", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/data", "forged", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/data", "staff-token", "").Code)
}

func TestRoutesLoginIsPublic(t *testing.T) {
	r := newTestRouter(&auditSpy{})

	w := serve(r, http.MethodPost, "/api/auth/login", "", `{"name":"Ana","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin-token")

	w = serve(r, http.MethodPost, "/api/auth/login", "", `{"name":"Ana","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesAdminOnlyMutations(t *testing.T) {
	audit := &auditSpy{}
	r := newTestRouter(audit)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/staff", `{"name":"Bia","shift":"morning"}`},
		{http.MethodPut, "/api/staff/st-1", `{"name":"Bia"}`},
		{http.MethodDelete, "/api/staff/st-1", ""},
		{http.MethodPost, "/api/sectors", `{"name":"UTI 2","staffId":"st-1"}`},
		{http.MethodPut, "/api/sectors/sec-1", `{"staffId":"st-1"}`},
		{http.MethodDelete, "/api/sectors/sec-1", ""},
	}
	for _, tc := range cases {
		w := serve(r, tc.method, tc.path, "staff-token", tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}
	assert.Empty(t, audit.actions)

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/staff", "admin-token", `{"name":"Bia","shift":"morning"}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/api/sectors/sec-1", "admin-token", "").Code)
	assert.Equal(t, []string{
		models.AuditActionStaffCreate + ":st-9",
		models.AuditActionSectorDelete + ":sec-1",
	}, audit.actions)
}

func TestRoutesUseCurrentStaffRowForMutations(t *testing.T) {
	audit := &auditSpy{}
	r := newTestRouter(audit)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/api/staff/st-1", "demoted-token", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/toggle-missed", "deleted-token", `{"sectorId":"sec-1"}`).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/data", "demoted-token", "").Code)
	assert.Empty(t, audit.actions)
}

func TestRoutesToggleIsAudited(t *testing.T) {
	audit := &auditSpy{}
	r := newTestRouter(audit)

	w := serve(r, http.MethodPost, "/api/toggle-missed", "staff-token", `{"sectorId":"sec-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed"`)
	assert.Equal(t, []string{models.AuditActionToggleMissed + ":sec-1"}, audit.actions)
}

func TestRoutesHealthEndpoints(t *testing.T) {
	r := newTestRouter(&auditSpy{})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "", "").Code)
}
