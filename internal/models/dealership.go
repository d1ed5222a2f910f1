package models

import "time"

// Dealership is a rooftop whose web and AI presence is scored.
type Dealership struct {
	BaseModel

	TenantID string `gorm:"size:36;not null;uniqueIndex:idx_dealerships_tenant_domain,priority:1" json:"tenant_id"`

	Name   string `gorm:"not null" json:"name"`
	Domain string `gorm:"not null;size:191;uniqueIndex:idx_dealerships_tenant_domain,priority:2" json:"domain"`
	Brand  string `json:"brand"`
	City   string `json:"city"`
	State  string `gorm:"size:2" json:"state"`

	// GBPPlaceID links the Google Business Profile used by the metrics feed.
	GBPPlaceID string `json:"gbp_place_id,omitempty"`

	MonthlyLeads int     `gorm:"not null;default:0" json:"monthly_leads"`
	AvgDealValue float64 `gorm:"not null;default:0" json:"avg_deal_value"`
	CloseRate    float64 `gorm:"not null;default:0" json:"close_rate"`
	TargetScore  float64 `gorm:"not null;default:0" json:"target_score"`

	Active       bool       `gorm:"not null;default:true;index" json:"active"`
	LastScoredAt *time.Time `json:"last_scored_at,omitempty"`
}
