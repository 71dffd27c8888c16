package retry

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

// Strategy decides whether an action that failed with err after the given
// number of attempts should run again. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range retriable {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly shifted by up to
// jitter times itself in either direction. A 100ms delay with a jitter of 0.1
// sleeps between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}
		sleep(delay)
		return true
	}
}

var sleep = time.Sleep
