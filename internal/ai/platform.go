// Package ai queries AI assistants for the answers compared by the consensus score.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyAnswer is returned when a platform replies with no text.
var ErrEmptyAnswer = errors.New("ai: empty answer")

// Platform is an AI assistant that answers free-text prompts.
type Platform interface {
	Name() string
	Ask(ctx context.Context, prompt string) (string, error)
}

// DealerQuery describes the dealership a consensus prompt is about.
type DealerQuery struct {
	Name  string
	City  string
	State string
	Brand string
	Query string
}

// BuildPrompt renders the question asked of every platform. All platforms
// receive the same prompt so their answers are comparable.
func BuildPrompt(q DealerQuery) string {
	var b strings.Builder
	question := strings.TrimSpace(q.Query)
	if question == "" {
		question = fmt.Sprintf("What are the best %s dealerships", fallback(q.Brand, "car"))
		if loc := location(q); loc != "" {
			question += " near " + loc
		}
		question += "?"
	}
	b.WriteString(question)
	if q.Name != "" {
		fmt.Fprintf(&b, "\nMention whether %s", q.Name)
		if loc := location(q); loc != "" {
			fmt.Fprintf(&b, " in %s", loc)
		}
		b.WriteString(" is a good choice and why.")
	}
	b.WriteString("\nAnswer in under 120 words.")
	return b.String()
}

func location(q DealerQuery) string {
	parts := make([]string, 0, 2)
	if c := strings.TrimSpace(q.City); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(q.State); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
