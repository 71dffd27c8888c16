// Package backoff provides delay schedules for retries.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay before the next attempt. Attempts start at 1.
type Strategy func(attempts uint) time.Duration

func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// BinaryExponential doubles the delay on every attempt, starting at baseDelay,
// saturating at the maximum duration.
//
// Ex. BinaryExponential(time.Second) = 1s, 2s, 4s, 8s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if attempts == 0 {
			attempts = 1
		}

		shift := attempts - 1
		if shift >= 63 || baseDelay > math.MaxInt64>>shift {
			return math.MaxInt64
		}
		return baseDelay << shift
	}
}
