package resilience

import (
	"math/rand"
	"time"
)

// Backoff returns the delay to wait before retry attempt n (1-based):
// base*2^(n-1) plus random jitter in [0, base). The jitter ceiling equals the
// next attempt's doubling step, so delays stay strictly increasing from one
// attempt to the next.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := base << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(base)))
	return delay + jitter
}
