package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(100 * time.Millisecond)
	for i := uint(1); i < 10; i++ {
		assert.Equal(t, 100*time.Millisecond, s(i))
	}
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, time.Second, s(0))
	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 2*time.Second, s(2))
	assert.Equal(t, 4*time.Second, s(3))
	assert.Equal(t, 8*time.Second, s(4))

	// Saturates instead of overflowing
	assert.EqualValues(t, math.MaxInt64, s(40))
	assert.EqualValues(t, math.MaxInt64, s(100))
}
