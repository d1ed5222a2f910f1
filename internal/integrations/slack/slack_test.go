package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte("token=x&team_id=T1&text=score+sunsetford.com")
	sig := Sign("secret", ts, body)

	require.NoError(t, VerifySignature("secret", ts, sig, body, now))
	require.ErrorIs(t, VerifySignature("secret", ts, sig, []byte("tampered"), now), ErrBadSignature)
	require.ErrorIs(t, VerifySignature("other", ts, sig, body, now), ErrBadSignature)
	require.ErrorIs(t, VerifySignature("secret", ts, sig, body, now.Add(6*time.Minute)), ErrStaleRequest)
	require.ErrorIs(t, VerifySignature("secret", "", sig, body, now), ErrMissingSignature)
	require.ErrorIs(t, VerifySignature("secret", "abc", sig, body, now), ErrStaleRequest)
	require.Error(t, VerifySignature("", ts, sig, body, now))
}

func TestSignMatchesSlackExample(t *testing.T) {
	// Example from Slack's request verification guide.
	body := []byte("token=xyzz0WbapA4vBCDEFasx0q6G&team_id=T1DC2JH3J&team_domain=testteamnow&channel_id=G8PSS9T3V&channel_name=foobar&user_id=U2CERLKJA&user_name=roadrunner&command=%2Fwebhook-collect&text=&response_url=https%3A%2F%2Fhooks.slack.com%2Fcommands%2FT1DC2JH3J%2F397700885554%2F96rGlfmibIGlgcZRskXaIFfN&trigger_id=398738663015.47445629121.803a0bc887a14d10d2c447fce8b6703c")
	got := Sign("8f742231b10e8888abcd99yyyzzz85a5", "1531420618", body)
	require.Equal(t, "v0=a2114d57b48eac39b9ad189dd8316235a7b4a8d21a10bd27519666489c69b503", got)
}

func TestParseCommand(t *testing.T) {
	form := url.Values{}
	form.Set("team_id", "T1")
	form.Set("text", "score <https://www.SunsetFord.com/inventory|www.sunsetford.com>")
	cmd, err := ParseCommand(form)
	require.NoError(t, err)
	require.Equal(t, SubcommandScore, cmd.Subcommand)
	require.Equal(t, "sunsetford.com", cmd.Domain)
	require.Equal(t, "T1", cmd.TeamID)

	form.Set("text", "sentinel https://sunsetford.com/path")
	cmd, err = ParseCommand(form)
	require.NoError(t, err)
	require.Equal(t, SubcommandSentinel, cmd.Subcommand)
	require.Equal(t, "sunsetford.com", cmd.Domain)

	form.Set("text", "")
	cmd, err = ParseCommand(form)
	require.NoError(t, err)
	require.Equal(t, SubcommandHelp, cmd.Subcommand)

	form.Set("text", "launch rockets")
	_, err = ParseCommand(form)
	require.ErrorIs(t, err, ErrUnknownSubcommand)

	form.Set("text", "score")
	_, err = ParseCommand(form)
	require.Error(t, err)
}

func TestWebhookClientPost(t *testing.T) {
	var received Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewWebhookClient(server.Client())
	msg := AlertMessage("critical", "Review response lag", "Average response time is 5.2h")
	require.NoError(t, client.Post(context.Background(), server.URL, msg))
	require.Equal(t, "*CRITICAL ALERT:* Review response lag\nAverage response time is 5.2h", received.Text)
	require.Equal(t, ":warning:", received.IconEmoji)
}

func TestWebhookClientFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewWebhookClient(server.Client())
	require.Error(t, client.Post(context.Background(), server.URL, Message{Text: "x"}))
	require.Error(t, client.Post(context.Background(), " ", Message{Text: "x"}))
}
