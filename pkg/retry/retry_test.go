package retry

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

func TestRetry_RealSleep(t *testing.T) {
	start := time.Now()
	n, err := Retry(func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(200*time.Millisecond), time.Second),
	)

	assert.Error(t, err)
	assert.EqualValues(t, 2, n)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestRetry_EventualSuccess(t *testing.T) {
	var calls int
	n, err := Retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestRetrier(t *testing.T) {
	retriableErr := errors.New("retriable")
	r := NewRetrier(Limit(5), RetriableErrors(retriableErr))

	attempts, err := r.Retry(func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.New("unknown") })
	assert.EqualError(t, err, "unknown")
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.Wrap(retriableErr, "rpc") })
	assert.True(t, errors.Is(err, retriableErr))
	assert.EqualValues(t, 5, attempts)
}
