package app

import (
	"strings"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/feeds"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/jobs"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/sentinel"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
)

// ScoreServiceConfig converts the scoring section.
func (c ScoringConfig) ScoreServiceConfig() services.ScoreConfig {
	return services.ScoreConfig{
		QAICacheTTL:       c.QAICacheTTL,
		CompositeCacheTTL: c.CompositeCacheTTL,
		TargetScore:       c.TargetScore,
		MonthlyLeads:      c.MonthlyLeads,
		AvgDealValue:      c.AvgDealValue,
		CloseRate:         c.CloseRate,
	}
}

// ConsensusServiceConfig reuses the QAI cache TTL for consensus reports and the
// AI timeout for each platform call.
func (c Config) ConsensusServiceConfig() services.ConsensusConfig {
	return services.ConsensusConfig{
		CacheTTL:        c.Scoring.QAICacheTTL,
		PlatformTimeout: c.AI.Timeout,
	}
}

// SentinelServiceConfig converts the sentinel section. Zero thresholds fall back
// to the stock values.
func (c SentinelConfig) SentinelServiceConfig() services.SentinelConfig {
	t := c.Thresholds
	return services.SentinelConfig{
		Window:     c.Window,
		WebhookURL: strings.TrimSpace(c.WebhookURL),
		Thresholds: sentinel.Thresholds{
			VLIWarning:                  t.VLIWarning,
			VLICritical:                 t.VLICritical,
			AIVWarning:                  t.AIVWarning,
			AIVCritical:                 t.AIVCritical,
			ReviewResponseHours:         t.ReviewResponseHours,
			ReviewResponseHoursCritical: t.ReviewResponseHoursCritical,
			ReviewVelocity:              t.ReviewVelocity,
			LCPSeconds:                  t.LCPSeconds,
			LCPSecondsCritical:          t.LCPSecondsCritical,
			QAIDrop:                     t.QAIDrop,
		}.WithDefaults(),
	}
}

// RunnerOptions converts the jobs section. feedRefresh enables the PageSpeed
// refresh step of daily scoring.
func (c JobsConfig) RunnerOptions(feedRefresh bool) []jobs.Option {
	return []jobs.Option{
		jobs.WithSchedules(c.DailySchedule, c.SentinelSchedule, c.CleanupSchedule, c.WeightsSchedule),
		jobs.WithJitterWindow(c.JitterWindow),
		jobs.WithConcurrency(c.Concurrency),
		jobs.WithRetentionDays(c.RetentionDays),
		jobs.WithFeedRefresh(feedRefresh),
	}
}

// ClaudeConfig converts the AI section for the Anthropic platform.
func (c AIConfig) ClaudeConfig() ai.ClaudeConfig {
	return ai.ClaudeConfig{
		APIKey:            strings.TrimSpace(c.AnthropicAPIKey),
		Model:             strings.TrimSpace(c.Model),
		MaxTokens:         c.MaxTokens,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Timeout:           c.Timeout,
	}
}

// PageSpeedConfig converts the metrics feed section.
func (c MetricsFeedConfig) PageSpeedConfig() feeds.PageSpeedConfig {
	return feeds.PageSpeedConfig{
		BaseURL: strings.TrimSpace(c.BaseURL),
		APIKey:  strings.TrimSpace(c.APIKey),
		Timeout: c.Timeout,
	}
}

// AlertWebhookURL is the global sentinel webhook. The sentinel section wins over
// the Slack section when both are set.
func (c Config) AlertWebhookURL() string {
	if url := strings.TrimSpace(c.Sentinel.WebhookURL); url != "" {
		return url
	}
	return strings.TrimSpace(c.Slack.WebhookURL)
}
