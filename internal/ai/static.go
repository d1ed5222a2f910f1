package ai

import (
	"context"
	"fmt"
	"strings"
)

// StaticPlatform returns canned answers. It stands in for assistants the
// service has no API access to.
type StaticPlatform struct {
	name   string
	answer func(prompt string) string
	err    error
}

// NewStaticPlatform returns a platform that always answers with answer.
func NewStaticPlatform(name, answer string) *StaticPlatform {
	return &StaticPlatform{name: name, answer: func(string) string { return answer }}
}

// NewFailingPlatform returns a platform whose every call fails with err.
func NewFailingPlatform(name string, err error) *StaticPlatform {
	return &StaticPlatform{name: name, err: err}
}

// Name implements Platform.
func (p *StaticPlatform) Name() string { return p.name }

// Ask implements Platform.
func (p *StaticPlatform) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.err != nil {
		return "", p.err
	}
	answer := strings.TrimSpace(p.answer(prompt))
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

var mockTemplates = map[string]string{
	"chatgpt":    "Based on customer reviews and inventory, %s is a strong option. Buyers mention fair pricing, a large new and used inventory, and a responsive service department.",
	"gemini":     "%s is frequently recommended locally. Reviews highlight transparent pricing, wide inventory selection, and helpful service advisors.",
	"perplexity": "Sources list %s among well reviewed dealerships, citing competitive pricing, inventory depth, and service department quality.",
	"copilot":    "Customers rate %s well for pricing transparency and inventory, with positive comments about the service team.",
}

// MockPlatforms builds canned platforms for the given names. The answer
// mentions the first line of the prompt so different queries yield different answers.
func MockPlatforms(names []string) []Platform {
	out := make([]Platform, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		tmpl, ok := mockTemplates[name]
		if !ok {
			tmpl = "%s appears in local dealership recommendations."
		}
		out = append(out, &StaticPlatform{
			name: name,
			answer: func(prompt string) string {
				return fmt.Sprintf(tmpl, subject(prompt))
			},
		})
	}
	return out
}

// subject extracts the dealership named in a prompt built by BuildPrompt.
func subject(prompt string) string {
	const marker = "Mention whether "
	if idx := strings.Index(prompt, marker); idx >= 0 {
		rest := prompt[idx+len(marker):]
		if end := strings.Index(rest, " is a good choice"); end > 0 {
			return rest[:end]
		}
	}
	return "this dealership"
}
