package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auditctx"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// normalisePage clamps pagination input to sane bounds.
func normalisePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxPageSize {
		perPage = defaultPageSize
	}
	return page, perPage
}

func actorFrom(ctx context.Context) auditctx.Actor {
	actor, _ := auditctx.FromContext(ctx)
	return actor
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func normaliseDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// findDealership loads a dealership by ID without a tenant check. Callers
// reached from the API verify ownership first.
func findDealership(ctx context.Context, db *gorm.DB, id string) (*models.Dealership, error) {
	var dealer models.Dealership
	err := db.WithContext(ensureContext(ctx)).Where("id = ?", id).Take(&dealer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dealership: %w", err)
	}
	return &dealer, nil
}
