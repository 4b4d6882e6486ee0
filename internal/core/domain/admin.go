package domain

import "time"

// RoleAdmin is the role claim carried by admin session tokens.
const RoleAdmin = "admin"

// AdminSession is a short-lived bearer token exchanged for the admin key.
type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
