package models

import "github.com/golang-jwt/jwt/v5"

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID   string
	Role StaffRole
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	StaffID string    `json:"staff_id"`
	Name    string    `json:"name"`
	Role    StaffRole `json:"role"`
	Shift   Shift     `json:"shift"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the identity used by services.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{ID: c.StaffID, Role: c.Role}
}
