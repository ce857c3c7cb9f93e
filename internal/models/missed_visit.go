package models

import "time"

// MissedVisit marks a sector as not visited on a calendar day. At most one
// record exists per (sector, day).
type MissedVisit struct {
	ID        string    `db:"id" json:"id"`
	SectorID  string    `db:"sector_id" json:"sectorId"`
	VisitDate Date      `db:"visit_date" json:"visitDate"`
	OwnerID   *string   `db:"owner_id" json:"ownerId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ToggleStatus is the outcome of flipping a missed-visit flag.
type ToggleStatus string

const (
	ToggleAdded   ToggleStatus = "added"
	ToggleRemoved ToggleStatus = "removed"
)
