package models

import "gorm.io/datatypes"

// Tenant is a dealer group or agency account. All dealership data is scoped to one tenant.
type Tenant struct {
	BaseModel

	Name     string         `gorm:"not null" json:"name"`
	Slug     string         `gorm:"uniqueIndex;not null;size:64" json:"slug"`
	Plan     string         `gorm:"not null;default:'free'" json:"plan"`
	Active   bool           `gorm:"not null;default:true" json:"active"`
	Settings datatypes.JSON `json:"settings"`

	Dealerships []Dealership `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"dealerships,omitempty"`
	Users       []User       `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"users,omitempty"`
}
