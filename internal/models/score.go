package models

import (
	"time"

	"gorm.io/datatypes"
)

// Score kinds.
const (
	ScoreKindQAI       = "qai"
	ScoreKindComposite = "dai"
	ScoreKindConsensus = "consensus"
	ScoreKindRaR       = "rar"
)

// Score is a persisted score computation. Details holds the kind-specific breakdown.
type Score struct {
	TenantModel

	DealershipID string         `gorm:"size:36;not null;index:idx_scores_dealer_kind,priority:1" json:"dealership_id"`
	Kind         string         `gorm:"not null;size:16;index:idx_scores_dealer_kind,priority:2" json:"kind"`
	Value        float64        `gorm:"not null" json:"value"`
	Band         string         `json:"band,omitempty"`
	Details      datatypes.JSON `json:"details,omitempty"`
	ComputedAt   time.Time      `gorm:"not null;index" json:"computed_at"`
}
