package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epiviu-api/internal/dto"
	"github.com/noah-isme/epiviu-api/internal/middleware"
	"github.com/noah-isme/epiviu-api/internal/models"
	"github.com/noah-isme/epiviu-api/internal/service"
	"github.com/noah-isme/epiviu-api/pkg/response"
)

type visitService interface {
	Toggle(ctx context.Context, actor models.Actor, req service.ToggleRequest) (models.ToggleStatus, error)
	DailyState(ctx context.Context, shift string) (*models.DailyState, error)
}

// VisitHandler exposes the daily roster and the missed-visit toggle.
type VisitHandler struct {
	service visitService
}

// NewVisitHandler constructs a VisitHandler.
func NewVisitHandler(svc visitService) *VisitHandler {
	return &VisitHandler{service: svc}
}

// Data godoc
// @Summary Daily roster
// @Description Staff, sectors and today's missed sectors, optionally for one shift
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param shift query string false "morning, afternoon or oncall"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /data [get]
func (h *VisitHandler) Data(c *gin.Context) {
	var query dto.DataQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	state, err := h.service.DailyState(c.Request.Context(), query.Shift)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state)
}

// ToggleMissed godoc
// @Summary Toggle missed visit
// @Description Mark today's visit of a sector as missed, or clear the mark
// @Tags Visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ToggleRequest true "Sector to toggle"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /toggle-missed [post]
func (h *VisitHandler) ToggleMissed(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid toggle payload"))
		return
	}
	status, err := h.service.Toggle(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, req.SectorID)
	response.JSON(c, http.StatusOK, dto.ToggleResponse{Status: status})
}
