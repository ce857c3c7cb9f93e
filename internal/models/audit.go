package models

import "time"

// Audit actions recorded after successful mutations.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionStaffCreate    = "STAFF_CREATE"
	AuditActionStaffUpdate    = "STAFF_UPDATE"
	AuditActionStaffDelete    = "STAFF_DELETE"
	AuditActionSectorCreate   = "SECTOR_CREATE"
	AuditActionSectorUpdate   = "SECTOR_UPDATE"
	AuditActionSectorDelete   = "SECTOR_DELETE"
	AuditActionToggleMissed   = "TOGGLE_MISSED"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actorId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	Payload    string    `db:"payload" json:"payload,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
