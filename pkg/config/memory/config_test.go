package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/config"
)

func TestConfig(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("confirmed")
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", val)

	c.InduceErrors()
	_, err = c.Get(ctx)
	assert.Equal(t, errInduced, err)

	c.StopInducingErrors()
	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	// Shutdown takes precedence over everything else
	c.SetValue("finalized")
	c.InduceErrors()
	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
