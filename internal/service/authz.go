package service

import "github.com/noah-isme/epiviu-api/internal/models"

// CanToggle reports whether an actor may flip the missed-visit flag of a
// sector owned by ownerID. Admins may toggle any sector, staff only their own.
func CanToggle(role models.StaffRole, actorID, ownerID string) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return actorID != "" && actorID == ownerID
	default:
		return false
	}
}
