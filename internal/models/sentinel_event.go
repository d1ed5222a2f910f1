package models

import (
	"time"

	"gorm.io/datatypes"
)

// Sentinel severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// SentinelEvent records one threshold breach found by a sentinel run.
type SentinelEvent struct {
	TenantModel

	DealershipID string  `gorm:"size:36;not null;index" json:"dealership_id"`
	Metric       string  `gorm:"not null;index" json:"metric"`
	Category     string  `json:"category"`
	Severity     string  `gorm:"not null;index" json:"severity"`
	Title        string  `gorm:"not null" json:"title"`
	Message      string  `json:"message"`
	Value        float64 `json:"value"`
	Threshold    float64 `json:"threshold"`
	Action       string  `json:"action"`

	Payload  datatypes.JSON `json:"payload,omitempty"`
	Notified bool           `gorm:"not null;default:false" json:"notified"`

	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *string    `gorm:"size:36" json:"acknowledged_by,omitempty"`
}

// Acknowledged reports whether someone has acknowledged the event.
func (e SentinelEvent) Acknowledged() bool {
	return e.AcknowledgedAt != nil
}
