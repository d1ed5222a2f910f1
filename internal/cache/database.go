package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

var errNoDatabase = errors.New("cache: database store not initialised")

var keyColumn = clause.Column{Name: "key"}

// DatabaseStore keeps entries in the cache_entries table. It is the shared
// tier when Redis is off. A zero ExpiresAt never expires.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: time.Now}
}

func (s *DatabaseStore) table(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errNoDatabase
	}
	return s.db.WithContext(ctx), nil
}

// IncrementWithTTL bumps a fixed-window counter under a row lock. An
// expired window restarts at 1.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	db, err := s.table(ctx)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	entry := models.CacheEntry{Key: key}
	var count int64

	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(clause.Eq{Column: keyColumn, Value: key}).
			Take(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			count, entry.ExpiresAt = 1, now.Add(window)
			entry.Value = []byte("1")
			return tx.Create(&entry).Error
		case err != nil:
			return err
		}

		count = 1
		if entry.ExpiresAt.After(now) {
			prev, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count = prev + 1
		} else {
			entry.ExpiresAt = now.Add(window)
		}
		entry.Value = []byte(strconv.FormatInt(count, 10))
		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return count, entry.ExpiresAt.Sub(now), nil
}

func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	db, err := s.table(ctx)
	if err != nil {
		return err
	}
	entry := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{keyColumn},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

// Get treats an expired row as a miss and removes it.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.table(ctx)
	if err != nil {
		return nil, false, err
	}

	var entry models.CacheEntry
	err = db.Where(clause.Eq{Column: keyColumn, Value: key}).Take(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	if !entry.ExpiresAt.IsZero() && !entry.ExpiresAt.After(s.now()) {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	db, err := s.table(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		values = append(values, k)
	}
	return db.Where(clause.IN{Column: keyColumn, Values: values}).Delete(&models.CacheEntry{}).Error
}

// PurgeExpired deletes rows that expired before the store clock.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errNoDatabase
	}
	return s.PurgeExpiredBefore(ctx, s.now())
}

// PurgeExpiredBefore deletes rows whose expiry is set and precedes cutoff.
func (s *DatabaseStore) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := s.table(ctx)
	if err != nil {
		return 0, err
	}
	res := db.Where("expires_at > ? AND expires_at < ?", time.Time{}, cutoff).Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}
