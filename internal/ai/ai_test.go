package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(DealerQuery{Name: "Sunset Ford", City: "Naples", State: "FL", Brand: "Ford"})
	require.Contains(t, prompt, "best Ford dealerships near Naples, FL")
	require.Contains(t, prompt, "Mention whether Sunset Ford in Naples, FL is a good choice")

	custom := BuildPrompt(DealerQuery{Query: "Who services EVs?"})
	require.Contains(t, custom, "Who services EVs?")
	require.NotContains(t, custom, "Mention whether")
}

func TestMockPlatformsMentionDealer(t *testing.T) {
	platforms := MockPlatforms([]string{"ChatGPT", "gemini", "", "perplexity"})
	require.Len(t, platforms, 3)
	require.Equal(t, "chatgpt", platforms[0].Name())

	prompt := BuildPrompt(DealerQuery{Name: "Sunset Ford", City: "Naples"})
	for _, p := range platforms {
		answer, err := p.Ask(context.Background(), prompt)
		require.NoError(t, err)
		require.Contains(t, answer, "Sunset Ford")
	}
}

func TestStaticPlatformErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewFailingPlatform("x", boom).Ask(context.Background(), "q")
	require.ErrorIs(t, err, boom)

	_, err = NewStaticPlatform("blank", "  ").Ask(context.Background(), "q")
	require.ErrorIs(t, err, ErrEmptyAnswer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStaticPlatform("y", "ok").Ask(ctx, "q")
	require.ErrorIs(t, err, context.Canceled)
}

func TestClaudePlatformRequiresKey(t *testing.T) {
	_, err := NewClaudePlatform(ClaudeConfig{})
	require.Error(t, err)
}

func TestClaudePlatformAsk(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Sunset Ford has great reviews."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	platform, err := NewClaudePlatform(ClaudeConfig{
		APIKey:  "test-key",
		Model:   "claude-test",
		Timeout: 5 * time.Second,
	}, option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	answer, err := platform.Ask(context.Background(), "Who is the best Ford dealer?")
	require.NoError(t, err)
	require.Equal(t, "Sunset Ford has great reviews.", answer)
	require.Equal(t, "claude-test", gotModel)
	require.Equal(t, "claude", platform.Name())
}

func TestClaudePlatformSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	platform, err := NewClaudePlatform(ClaudeConfig{APIKey: "k"}, option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = platform.Ask(context.Background(), "q")
	require.Error(t, err)
}
