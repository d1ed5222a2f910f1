// Package slack verifies slash-command requests and posts alerts to incoming webhooks.
package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names Slack signs requests with.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

// MaxClockSkew bounds the age of a signed request.
const MaxClockSkew = 5 * time.Minute

var (
	// ErrMissingSignature is returned when either signing header is absent.
	ErrMissingSignature = errors.New("slack: missing signature headers")
	// ErrStaleRequest is returned when the timestamp is outside MaxClockSkew.
	ErrStaleRequest = errors.New("slack: request timestamp outside allowed window")
	// ErrBadSignature is returned when the HMAC does not match.
	ErrBadSignature = errors.New("slack: signature mismatch")
)

// VerifySignature checks a v0 request signature: HMAC-SHA256 over
// "v0:<timestamp>:<body>" keyed by the app signing secret.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if secret == "" {
		return errors.New("slack: signing secret is not configured")
	}
	timestamp = strings.TrimSpace(timestamp)
	signature = strings.TrimSpace(signature)
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStaleRequest, err)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > MaxClockSkew || age < -MaxClockSkew {
		return ErrStaleRequest
	}

	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the v0 signature header value for body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
