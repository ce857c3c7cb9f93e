package dto

import "github.com/noah-isme/epiviu-api/internal/models"

// IDResponse is returned after a resource is created.
type IDResponse struct {
	ID string `json:"id"`
}

// StatusResponse reports the outcome of a delete.
type StatusResponse struct {
	Status string `json:"status"`
}

// ToggleResponse reports the state of a sector after a toggle.
type ToggleResponse struct {
	Status models.ToggleStatus `json:"status"`
}

// DataQuery filters the daily roster.
type DataQuery struct {
	Shift string `form:"shift"`
}

// SectorListQuery filters sector listings.
type SectorListQuery struct {
	StaffID string `form:"staffId"`
}

// ExportQuery selects the report range and file format.
type ExportQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Format    string `form:"format"`
}

// HealthResponse is served by the liveness and readiness checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
