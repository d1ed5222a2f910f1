package models

import "gorm.io/datatypes"

// Integration kinds.
const (
	IntegrationSlackWebhook   = "slack_webhook"
	IntegrationGenericWebhook = "webhook"
)

// Integration stores a tenant's outbound connector. SecretCiphertext holds the
// encrypted endpoint URL or token and is never serialised.
type Integration struct {
	TenantModel

	Kind             string         `gorm:"not null;size:32;index" json:"kind"`
	Name             string         `gorm:"not null" json:"name"`
	Enabled          bool           `gorm:"not null;default:true" json:"enabled"`
	SecretCiphertext string         `gorm:"type:text" json:"-"`
	Config           datatypes.JSON `json:"config,omitempty"`
}
