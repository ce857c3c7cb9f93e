package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/middleware"
	"github.com/noah-isme/epiviu-api/internal/models"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Auth    *AuthHandler
	Staff   *StaffHandler
	Sectors *SectorHandler
	Visits  *VisitHandler
	Reports *ReportHandler
	Metrics *MetricsHandler
}

// RouteDeps carries the middleware collaborators.
type RouteDeps struct {
	Tokens middleware.TokenValidator
	Staff  middleware.StaffLoader
	Audit  middleware.AuditRecorder
}

// RegisterRoutes mounts health endpoints at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, deps RouteDeps) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))
	if deps.Staff != nil {
		secured.Use(middleware.CurrentStaff(deps.Staff))
	}
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	secured.GET("/data", h.Visits.Data)
	secured.POST("/toggle-missed", middleware.Audit(deps.Audit, models.AuditActionToggleMissed, "missed_visit"), h.Visits.ToggleMissed)

	secured.GET("/staff", h.Staff.List)
	secured.GET("/sectors", h.Sectors.List)

	secured.GET("/reports", h.Reports.Rows)
	secured.GET("/reports/summary", h.Reports.Summary)
	secured.GET("/reports/export", h.Reports.Export)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/staff", middleware.Audit(deps.Audit, models.AuditActionStaffCreate, "staff"), h.Staff.Create)
	admin.PUT("/staff/:id", middleware.Audit(deps.Audit, models.AuditActionStaffUpdate, "staff"), h.Staff.Update)
	admin.DELETE("/staff/:id", middleware.Audit(deps.Audit, models.AuditActionStaffDelete, "staff"), h.Staff.Delete)
	admin.POST("/sectors", middleware.Audit(deps.Audit, models.AuditActionSectorCreate, "sector"), h.Sectors.Create)
	admin.PUT("/sectors/:id", middleware.Audit(deps.Audit, models.AuditActionSectorUpdate, "sector"), h.Sectors.Update)
	admin.DELETE("/sectors/:id", middleware.Audit(deps.Audit, models.AuditActionSectorDelete, "sector"), h.Sectors.Delete)

	if h.Metrics != nil {
		admin.GET("/metrics/snapshot", h.Metrics.Snapshot)
	}
}
