package models

import "gorm.io/datatypes"

// Fix pack statuses.
const (
	FixPackStatusDraft    = "draft"
	FixPackStatusReady    = "ready"
	FixPackStatusArchived = "archived"
)

// FixAction is one remediation item inside a fix pack.
type FixAction struct {
	Title           string  `json:"title"`
	Source          string  `json:"source"`
	Priority        string  `json:"priority"`
	EstimatedImpact float64 `json:"estimated_impact"`
}

// FixPack bundles remediation actions for a dealership. It is advisory only.
type FixPack struct {
	TenantModel

	DealershipID           string                         `gorm:"size:36;not null;index" json:"dealership_id"`
	Title                  string                         `gorm:"not null" json:"title"`
	Status                 string                         `gorm:"not null;default:'draft'" json:"status"`
	ScoreAtGeneration      float64                        `json:"score_at_generation"`
	EstimatedMonthlyImpact float64                        `json:"estimated_monthly_impact"`
	Actions                datatypes.JSONSlice[FixAction] `json:"actions"`
}
