package models

import "time"

// Sector is a physical location checked by exactly one staff member.
type Sector struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StaffID   string    `db:"staff_id" json:"staffId"`
	OwnerID   *string   `db:"owner_id" json:"ownerId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SectorFilter narrows sector listings.
type SectorFilter struct {
	StaffID string
}
