package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/dto"
	"github.com/noah-isme/epiviu-api/internal/middleware"
	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/service"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
	"github.com/noah-isme/epiviu-api/pkg/response"
)

type reportService interface {
	Rows(ctx context.Context, query service.ReportQuery) ([]models.ReportRow, bool, error)
	Summary(ctx context.Context, query service.ReportQuery) (*models.ReportSummary, bool, error)
}

type exportService interface {
	Export(ctx context.Context, query service.ReportQuery, format string) (*service.ExportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
	exports exportService
}

// NewReportHandler constructs handler. exports may be nil when downloads are disabled.
func NewReportHandler(reports reportService, exports exportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Rows godoc
// @Summary Visitation report
// @Description One row per sector, plus one per missed day in range
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD, defaults to today"
// @Param endDate query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Rows(c *gin.Context) {
	var query service.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	rows, hit, err := h.reports.Rows(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, middleware.ExtractMeta(c))
}

// Summary godoc
// @Summary Visitation summary
// @Description Visited and missed counts by staff and shift
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD, defaults to today"
// @Param endDate query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	var query service.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	summary, hit, err := h.reports.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download report
// @Tags Reports
// @Produce application/octet-stream
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD, defaults to today"
// @Param endDate query string false "YYYY-MM-DD, defaults to today"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "report export is disabled"))
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	file, err := h.exports.Export(c.Request.Context(), service.ReportQuery{StartDate: query.StartDate, EndDate: query.EndDate}, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
