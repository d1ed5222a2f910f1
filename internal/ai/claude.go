package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// ClaudeConfig configures the Anthropic-backed platform.
type ClaudeConfig struct {
	APIKey            string
	Model             string
	MaxTokens         int64
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	defaultClaudeMaxTokens = 1024
	defaultClaudeTimeout   = 30 * time.Second
)

// ClaudePlatform asks Claude through the Messages API. Calls are rate
// limited per process and bounded by a per-call timeout.
type ClaudePlatform struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewClaudePlatform constructs a Claude platform. Extra request options are
// appended after the API key, which lets tests point the client at a fake server.
func NewClaudePlatform(cfg ClaudeConfig, opts ...option.RequestOption) (*ClaudePlatform, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("ai: anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultClaudeModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultClaudeMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClaudeTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	requestOpts := append([]option.RequestOption{option.WithAPIKey(key)}, opts...)
	return &ClaudePlatform{
		client:    anthropic.NewClient(requestOpts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

// Name implements Platform.
func (p *ClaudePlatform) Name() string { return "claude" }

// Ask sends prompt as a single user message and returns the concatenated text blocks.
func (p *ClaudePlatform) Ask(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ai: claude: rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: claude: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
