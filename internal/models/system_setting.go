package models

import "time"

// SystemSetting persists installation-wide values such as learned scoring weights.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
