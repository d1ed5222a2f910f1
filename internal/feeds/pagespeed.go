// Package feeds pulls dealership signals from public web performance APIs.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultPageSpeedURL is the Google PageSpeed Insights v5 endpoint.
const DefaultPageSpeedURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

const maxBodyBytes = 16 << 20

// ErrNoLighthouseResult is returned when the payload has no lighthouse section.
var ErrNoLighthouseResult = errors.New("feeds: response has no lighthouseResult")

// ErrUpstream wraps transport failures and non-200 answers from the PageSpeed API.
var ErrUpstream = errors.New("feeds: pagespeed unavailable")

// PageSpeedConfig configures the PageSpeed client.
type PageSpeedConfig struct {
	BaseURL  string
	APIKey   string
	Strategy string
	Timeout  time.Duration
}

// Snapshot holds the signals extracted from one PageSpeed run. Category
// scores are on a 0-100 scale; 0 means the category was not returned.
type Snapshot struct {
	URL           string
	FetchedAt     time.Time
	LCPSeconds    *float64
	Performance   float64
	SEO           float64
	Accessibility float64
	BestPractices float64
}

// PageSpeedClient fetches and parses PageSpeed Insights reports.
type PageSpeedClient struct {
	baseURL  string
	apiKey   string
	strategy string
	http     *http.Client
	now      func() time.Time
}

// NewPageSpeedClient constructs a client. A nil httpClient uses one with cfg.Timeout.
func NewPageSpeedClient(cfg PageSpeedConfig, httpClient *http.Client) *PageSpeedClient {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultPageSpeedURL
	}
	strategy := strings.ToLower(strings.TrimSpace(cfg.Strategy))
	if strategy == "" {
		strategy = "mobile"
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &PageSpeedClient{
		baseURL:  base,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		strategy: strategy,
		http:     httpClient,
		now:      time.Now,
	}
}

// Fetch runs PageSpeed against https://<domain>/ and parses the result.
func (c *PageSpeedClient) Fetch(ctx context.Context, domain string) (*Snapshot, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, errors.New("feeds: domain is required")
	}
	target := "https://" + strings.TrimSuffix(domain, "/") + "/"

	params := url.Values{}
	params.Set("url", target)
	params.Set("strategy", c.strategy)
	for _, category := range []string{"performance", "seo", "accessibility", "best-practices"} {
		params.Add("category", category)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("feeds: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("feeds: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	snap, err := ParsePageSpeed(body)
	if err != nil {
		return nil, err
	}
	if snap.URL == "" {
		snap.URL = target
	}
	snap.FetchedAt = c.now()
	return snap, nil
}

// ParsePageSpeed extracts a Snapshot from a PageSpeed v5 JSON payload.
func ParsePageSpeed(body []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("feeds: invalid json")
	}
	root := gjson.ParseBytes(body)
	lighthouse := root.Get("lighthouseResult")
	if !lighthouse.Exists() {
		return nil, ErrNoLighthouseResult
	}

	snap := &Snapshot{
		URL:           lighthouse.Get("finalUrl").String(),
		Performance:   categoryScore(lighthouse, "performance"),
		SEO:           categoryScore(lighthouse, "seo"),
		Accessibility: categoryScore(lighthouse, "accessibility"),
		BestPractices: categoryScore(lighthouse, "best-practices"),
	}
	if lcp := lighthouse.Get(`audits.largest-contentful-paint.numericValue`); lcp.Exists() {
		seconds := lcp.Float() / 1000
		snap.LCPSeconds = &seconds
	}
	return snap, nil
}

func categoryScore(lighthouse gjson.Result, name string) float64 {
	score := lighthouse.Get("categories." + name + ".score")
	if !score.Exists() {
		return 0
	}
	return score.Float() * 100
}
