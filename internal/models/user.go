package models

import "time"

// Roles understood by the API. Tokens carry one of these.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// User mirrors an identity from the upstream provider the first time it calls the API.
// Credentials never live here.
type User struct {
	TenantModel

	Subject    string     `gorm:"uniqueIndex;not null;size:191" json:"subject"`
	Email      string     `gorm:"index" json:"email"`
	Name       string     `json:"name"`
	Role       string     `gorm:"not null;default:'viewer'" json:"role"`
	LastSeenAt *time.Time `json:"last_seen_at"`
}
