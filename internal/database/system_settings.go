package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/scoring"
)

// ScoringWeightsSetting holds the JSON encoded composite weights currently in use.
const ScoringWeightsSetting = "scoring.weights"

// GetSystemSetting retrieves a system setting by key. Returns an empty string when not found.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("system settings: db is nil")
	}

	var setting models.SystemSetting
	err := db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).Take(&setting).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return "", fmt.Errorf("system settings: get %q: %w", key, err)
}

// UpsertSystemSetting stores or updates a system setting value.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return fmt.Errorf("system settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("system settings: key is required")
	}

	record := models.SystemSetting{Key: key, Value: value}
	if err := db.WithContext(ctx).
		Where(&models.SystemSetting{Key: key}).
		Assign(map[string]any{"value": value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("system settings: upsert %q: %w", key, err)
	}

	return nil
}

// LoadScoringWeights returns the stored composite weights, falling back to the
// defaults when none are stored or the stored set is invalid.
func LoadScoringWeights(ctx context.Context, db *gorm.DB) (scoring.Weights, error) {
	raw, err := GetSystemSetting(ctx, db, ScoringWeightsSetting)
	if err != nil {
		return scoring.DefaultWeights(), err
	}
	if strings.TrimSpace(raw) == "" {
		return scoring.DefaultWeights(), nil
	}

	var weights scoring.Weights
	if err := json.Unmarshal([]byte(raw), &weights); err != nil {
		return scoring.DefaultWeights(), fmt.Errorf("system settings: decode weights: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return scoring.DefaultWeights(), err
	}
	return weights, nil
}

// StoreScoringWeights validates and persists composite weights.
func StoreScoringWeights(ctx context.Context, db *gorm.DB, weights scoring.Weights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("system settings: encode weights: %w", err)
	}
	return UpsertSystemSetting(ctx, db, ScoringWeightsSetting, string(encoded))
}

// KDFSaltSetting holds the hex encoded salt used to stretch passphrase encryption keys.
const KDFSaltSetting = "security.kdf_salt"

const kdfSaltBytes = 16

// EnsureKDFSalt returns the stored key derivation salt, generating and storing
// a random one on first boot. The salt must stay stable across restarts or
// previously sealed integration secrets become unreadable.
func EnsureKDFSalt(ctx context.Context, db *gorm.DB) ([]byte, error) {
	raw, err := GetSystemSetting(ctx, db, KDFSaltSetting)
	if err != nil {
		return nil, err
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		salt, err := hex.DecodeString(raw)
		if err != nil || len(salt) < kdfSaltBytes {
			return nil, fmt.Errorf("system settings: %s is malformed", KDFSaltSetting)
		}
		return salt, nil
	}

	salt := make([]byte, kdfSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("system settings: generate kdf salt: %w", err)
	}
	if err := UpsertSystemSetting(ctx, db, KDFSaltSetting, hex.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}
