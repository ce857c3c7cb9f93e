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

type sectorService interface {
	List(ctx context.Context, filter models.SectorFilter) ([]models.Sector, error)
	Create(ctx context.Context, req service.CreateSectorRequest) (*models.Sector, error)
	Update(ctx context.Context, id string, req service.UpdateSectorRequest) (*models.Sector, error)
	Delete(ctx context.Context, id string) error
}

// SectorHandler exposes sector endpoints.
type SectorHandler struct {
	service sectorService
}

// NewSectorHandler constructs a SectorHandler.
func NewSectorHandler(svc sectorService) *SectorHandler {
	return &SectorHandler{service: svc}
}

// List godoc
// @Summary List sectors
// @Tags Sectors
// @Produce json
// @Security BearerAuth
// @Param staffId query string false "Owner filter"
// @Success 200 {object} response.Envelope
// @Router /sectors [get]
func (h *SectorHandler) List(c *gin.Context) {
	var query dto.SectorListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query parameters"))
		return
	}
	sectors, err := h.service.List(c.Request.Context(), models.SectorFilter{StaffID: query.StaffID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sectors)
}

// Create godoc
// @Summary Create sector
// @Tags Sectors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateSectorRequest true "Sector payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sectors [post]
func (h *SectorHandler) Create(c *gin.Context) {
	var req service.CreateSectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid sector payload"))
		return
	}
	sector, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, sector.ID)
	response.Created(c, dto.IDResponse{ID: sector.ID})
}

// Update godoc
// @Summary Reassign sector
// @Description Move a sector to another staff member and optionally rename it
// @Tags Sectors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sector ID"
// @Param payload body service.UpdateSectorRequest true "New owner and name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sectors/{id} [put]
func (h *SectorHandler) Update(c *gin.Context) {
	var req service.UpdateSectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid sector payload"))
		return
	}
	sector, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sector)
}

// Delete godoc
// @Summary Delete sector
// @Tags Sectors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sector ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sectors/{id} [delete]
func (h *SectorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}
