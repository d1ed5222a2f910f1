package scoring

import (
	"hash/fnv"
	"time"
)

// Jitter returns a deterministic delay in [0, window) derived from the dealer id,
// at one-second granularity. It spreads the daily scoring run so dealers do not
// all start at the same instant. A window under one second yields zero.
func Jitter(dealerID string, window time.Duration) time.Duration {
	seconds := uint32(window / time.Second)
	if seconds == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(dealerID))
	return time.Duration(h.Sum32()%seconds) * time.Second
}
