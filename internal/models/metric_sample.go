package models

import "time"

// MetricSample is one observation of a dealership's signals, ingested from a
// feed or posted by a client. Score columns use 0 for "not reported".
type MetricSample struct {
	TenantModel

	DealershipID string    `gorm:"size:36;not null;index:idx_metric_samples_dealer_observed,priority:1" json:"dealership_id"`
	ObservedAt   time.Time `gorm:"not null;index:idx_metric_samples_dealer_observed,priority:2" json:"observed_at"`
	Source       string    `gorm:"not null;default:'api'" json:"source"`

	// QAI inputs.
	PIQR float64 `json:"piqr"`
	HRP  float64 `json:"hrp"`
	VAI  float64 `json:"vai"`
	OCI  float64 `json:"oci"`

	// Composite pillars.
	ATI float64 `json:"ati"`
	AIV float64 `json:"aiv"`
	VLI float64 `json:"vli"`
	OI  float64 `json:"oi"`
	GBP float64 `json:"gbp"`
	RRS float64 `json:"rrs"`
	WX  float64 `json:"wx"`
	IFR float64 `json:"ifr"`
	CIS float64 `json:"cis"`

	PolicyViolations int     `json:"policy_violations"`
	ParityDeltas     int     `json:"parity_deltas"`
	StalenessScore   float64 `json:"staleness_score"`

	// Channel visibility.
	SEOVisibility    float64 `json:"seo_visibility"`
	AEOVisibility    float64 `json:"aeo_visibility"`
	GEOVisibility    float64 `json:"geo_visibility"`
	SocialVisibility float64 `json:"social_visibility"`

	// Operational signals; nil when not measured.
	ReviewResponseHours *float64 `json:"review_response_hours,omitempty"`
	ReviewVelocity      *float64 `json:"review_velocity,omitempty"`
	LCPSeconds          *float64 `json:"lcp_seconds,omitempty"`
	MonthlyLeads        *int     `json:"monthly_leads,omitempty"`
}
