package realtime

// Streams a dashboard client can subscribe to.
const (
	StreamSentinel = "sentinel.events"
	StreamScores   = "scores"
)

// Events published on the streams above.
const (
	EventSentinelBreach = "sentinel.breach"
	EventScoreUpdated   = "score.updated"
	EventPong           = "pong"
)

// DefaultStreams is used when a client names none.
var DefaultStreams = []string{StreamSentinel, StreamScores}

// KnownStream reports whether stream is served by the hub.
func KnownStream(stream string) bool {
	switch normalizeStream(stream) {
	case StreamSentinel, StreamScores:
		return true
	default:
		return false
	}
}
