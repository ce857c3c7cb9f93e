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

type staffService interface {
	List(ctx context.Context) ([]models.Staff, error)
	Create(ctx context.Context, req service.CreateStaffRequest) (*models.Staff, error)
	Update(ctx context.Context, id string, req service.UpdateStaffRequest) (*models.Staff, error)
	Delete(ctx context.Context, id string) error
}

// StaffHandler exposes staff endpoints.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	staff, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff)
}

// Create godoc
// @Summary Create staff
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStaffRequest true "Staff payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid staff payload"))
		return
	}
	staff, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.AuditResourceIDKey, staff.ID)
	response.Created(c, dto.IDResponse{ID: staff.ID})
}

// Update godoc
// @Summary Update staff
// @Description Rename a staff member, change their shift or role
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Param payload body service.UpdateStaffRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid staff payload"))
		return
	}
	staff, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff)
}

// Delete godoc
// @Summary Delete staff
// @Description Delete a staff member with their sectors and missed-visit history
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/{id} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}
