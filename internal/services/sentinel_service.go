package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/integrations/slack"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/sentinel"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
)

// ErrSentinelEventNotFound indicates the event does not exist in the tenant.
var ErrSentinelEventNotFound = errors.New("sentinel service: event not found")

// AlertNotifier delivers a formatted alert to a webhook URL.
type AlertNotifier interface {
	Post(ctx context.Context, url string, msg slack.Message) error
}

// EventPublisher pushes live updates to a tenant's connected dashboards.
type EventPublisher interface {
	Publish(tenantID, stream, event string, data any)
}

// WebhookResolver looks up a tenant-specific alert webhook. An empty URL means none.
type WebhookResolver interface {
	ResolveWebhook(ctx context.Context, tenantID string) (string, error)
}

// SentinelConfig controls the sample window, thresholds and the fallback webhook.
type SentinelConfig struct {
	Window     int
	Thresholds sentinel.Thresholds
	WebhookURL string
}

// SentinelEventFilter narrows ListEvents.
type SentinelEventFilter struct {
	DealershipID string
	Severity     string
	Acknowledged *bool
	Page         int
	PageSize     int
}

// SentinelService evaluates dealership metrics against thresholds and records breaches.
type SentinelService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier AlertNotifier
	resolver WebhookResolver
	events   EventPublisher
	cfg      SentinelConfig
	now      func() time.Time
}

// NewSentinelService constructs a SentinelService. notifier and resolver may be nil.
func NewSentinelService(db *gorm.DB, audit *AuditService, cfg SentinelConfig, notifier AlertNotifier, resolver WebhookResolver) (*SentinelService, error) {
	if db == nil {
		return nil, errors.New("sentinel service: db is required")
	}
	if cfg.Window <= 0 {
		cfg.Window = sentinel.DefaultWindow
	}
	cfg.Thresholds = cfg.Thresholds.WithDefaults()
	return &SentinelService{
		db:       db,
		audit:    audit,
		notifier: notifier,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// SetPublisher enables live breach events. A nil publisher disables them.
func (s *SentinelService) SetPublisher(p EventPublisher) {
	s.events = p
}

// Run evaluates the dealership's most recent samples and stores one event per
// finding. Notification failures are logged and do not fail the run.
func (s *SentinelService) Run(ctx context.Context, dealerID string) ([]models.SentinelEvent, error) {
	ctx = ensureContext(ctx)

	dealer, err := findDealership(ctx, s.db, dealerID)
	if err != nil {
		return nil, err
	}
	samples, err := recentSamples(ctx, s.db, dealer.ID, s.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("sentinel service: %w", err)
	}

	findings := sentinel.Evaluate(samples, s.cfg.Thresholds)
	if len(findings) == 0 {
		return []models.SentinelEvent{}, nil
	}

	payload, _ := json.Marshal(map[string]any{
		"domain":  dealer.Domain,
		"samples": len(samples),
		"newest":  samples[0].ObservedAt,
	})
	events := make([]models.SentinelEvent, 0, len(findings))
	for _, f := range findings {
		event := models.SentinelEvent{
			DealershipID: dealer.ID,
			Metric:       f.Metric,
			Category:     f.Category,
			Severity:     f.Severity,
			Title:        f.Title,
			Message:      f.Message,
			Value:        f.Value,
			Threshold:    f.Threshold,
			Action:       f.Action,
			Payload:      datatypes.JSON(payload),
		}
		event.TenantID = dealer.TenantID
		events = append(events, event)
	}

	if err := s.db.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, fmt.Errorf("sentinel service: store events: %w", err)
	}
	for _, e := range events {
		metrics.SentinelEvents.WithLabelValues(e.Severity, e.Metric).Inc()
		if s.events != nil {
			s.events.Publish(dealer.TenantID, realtime.StreamSentinel, realtime.EventSentinelBreach, e)
		}
	}

	if s.notify(ctx, dealer, findings) {
		ids := make([]string, len(events))
		for i := range events {
			events[i].Notified = true
			ids[i] = events[i].ID
		}
		if err := s.db.WithContext(ctx).Model(&models.SentinelEvent{}).
			Where("id IN ?", ids).
			Update("notified", true).Error; err != nil {
			logger.WithModule("sentinel").Warn("failed to mark events notified",
				zap.String("dealership_id", dealer.ID), zap.Error(err))
		}
	}

	return events, nil
}

// notify posts one summary message and reports whether it was delivered.
func (s *SentinelService) notify(ctx context.Context, dealer *models.Dealership, findings []sentinel.Finding) bool {
	if s.notifier == nil {
		return false
	}
	log := logger.WithModule("sentinel").With(zap.String("dealership_id", dealer.ID))

	url := s.cfg.WebhookURL
	if s.resolver != nil {
		tenantURL, err := s.resolver.ResolveWebhook(ctx, dealer.TenantID)
		if err != nil {
			log.Warn("tenant webhook lookup failed, using default", zap.Error(err))
		} else if tenantURL != "" {
			url = tenantURL
		}
	}
	if strings.TrimSpace(url) == "" {
		return false
	}

	var body strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&body, "• %s: %s\n", f.Title, f.Message)
	}
	title := fmt.Sprintf("%s (%s): %d issue(s)", dealer.Name, dealer.Domain, len(findings))
	msg := slack.AlertMessage(sentinel.HighestSeverity(findings), title, strings.TrimSuffix(body.String(), "\n"))

	if err := s.notifier.Post(ctx, url, msg); err != nil {
		log.Warn("sentinel alert delivery failed", zap.Error(err))
		return false
	}
	return true
}

// ListEvents returns the tenant's events, newest first, and the total matching count.
func (s *SentinelService) ListEvents(ctx context.Context, tenantID string, filter SentinelEventFilter) ([]models.SentinelEvent, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(filter.Page, filter.PageSize)

	query := s.db.WithContext(ctx).Model(&models.SentinelEvent{}).Where("tenant_id = ?", tenantID)
	if filter.DealershipID != "" {
		query = query.Where("dealership_id = ?", filter.DealershipID)
	}
	if severity := strings.ToLower(strings.TrimSpace(filter.Severity)); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if filter.Acknowledged != nil {
		if *filter.Acknowledged {
			query = query.Where("acknowledged_at IS NOT NULL")
		} else {
			query = query.Where("acknowledged_at IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("sentinel service: count events: %w", err)
	}

	var events []models.SentinelEvent
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("sentinel service: list events: %w", err)
	}
	return events, total, nil
}

// OpenEvents returns a dealership's unacknowledged events, newest first.
func (s *SentinelService) OpenEvents(ctx context.Context, dealerID string, limit int) ([]models.SentinelEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []models.SentinelEvent
	err := s.db.WithContext(ensureContext(ctx)).
		Where("dealership_id = ? AND acknowledged_at IS NULL", dealerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("sentinel service: open events: %w", err)
	}
	return events, nil
}

// Acknowledge marks an event as handled by userID. Acknowledging twice keeps
// the first acknowledgement.
func (s *SentinelService) Acknowledge(ctx context.Context, tenantID, eventID, userID string) (*models.SentinelEvent, error) {
	ctx = ensureContext(ctx)

	var event models.SentinelEvent
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", eventID, tenantID).Take(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSentinelEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sentinel service: load event: %w", err)
	}
	if event.Acknowledged() {
		return &event, nil
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.SentinelEvent{}).
		Where("id = ? AND acknowledged_at IS NULL", event.ID).
		Updates(map[string]any{
			"acknowledged_at": now,
			"acknowledged_by": optionalString(userID),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("sentinel service: acknowledge event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// another caller acknowledged it between the read and the update
		if err := s.db.WithContext(ctx).Where("id = ?", event.ID).Take(&event).Error; err != nil {
			return nil, fmt.Errorf("sentinel service: reload event: %w", err)
		}
		return &event, nil
	}
	event.AcknowledgedAt = &now
	event.AcknowledgedBy = optionalString(userID)

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     "sentinel.acknowledge",
		Resource:   "sentinel_event",
		ResourceID: event.ID,
		Result:     "success",
		Metadata:   map[string]any{"metric": event.Metric, "severity": event.Severity},
	})
	return &event, nil
}
