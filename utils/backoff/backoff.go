package backoff

import (
	"math"
	"math/rand"
	"time"
)

// RetryDelay computes the delay before the given attempt using exponential
// backoff with +/- 50% jitter. Attempt 1 is the initial try and gets no
// delay.
func RetryDelay(attempt int, baseDelay time.Duration) time.Duration {
	if attempt <= 1 || baseDelay <= 0 {
		return 0
	}

	// 2^(attempt-1) * baseDelay
	exp := math.Pow(2, float64(attempt-1))
	delay := time.Duration(exp) * baseDelay

	jitterRange := float64(delay) * 0.5
	jitter := time.Duration(rand.Float64()*2*jitterRange - jitterRange)

	final := delay + jitter
	if final < 0 {
		final = 0
	}
	return final
}
