package models

import "time"

// Shift is the time-of-day cohort a staff member is rostered on.
type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftOnCall    Shift = "oncall"
)

// Valid reports whether the shift is one of the known cohorts.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftOnCall:
		return true
	}
	return false
}

// VisibleIn reports whether staff on shift s appear in the roster of view.
// On-call staff belong to both the morning and the afternoon roster.
func (s Shift) VisibleIn(view Shift) bool {
	return s == view || s == ShiftOnCall
}

// StaffRole controls what a staff member may change.
type StaffRole string

const (
	RoleAdmin StaffRole = "admin"
	RoleStaff StaffRole = "staff"
)

// Valid reports whether the role is known.
func (r StaffRole) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Staff is a member of the visitation team.
type Staff struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Shift               Shift     `db:"shift" json:"shift"`
	Role                StaffRole `db:"role" json:"role"`
	PasswordHash        *string   `db:"password_hash" json:"-"`
	NeedsPasswordChange bool      `db:"needs_password_change" json:"needsPasswordChange"`
	OwnerID             *string   `db:"owner_id" json:"ownerId,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// HasCredential reports whether the staff member can log in.
func (s *Staff) HasCredential() bool {
	return s != nil && s.PasswordHash != nil && *s.PasswordHash != ""
}
