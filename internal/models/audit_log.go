package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of API mutations.
type AuditLog struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID   *string        `gorm:"size:36;index" json:"tenant_id"`
	UserID     *string        `gorm:"size:36;index" json:"user_id"`
	Actor      string         `json:"actor"`
	Action     string         `gorm:"not null;index" json:"action"`
	Resource   string         `gorm:"index" json:"resource"`
	ResourceID string         `gorm:"index" json:"resource_id"`
	Result     string         `gorm:"not null" json:"result"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
