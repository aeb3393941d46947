package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AcquireRelease(t *testing.T) {
	p := NewPool(2, time.Second)

	r1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	r2, err := p.Acquire(context.Background())
	require.NoError(t, err)

	r1()
	r2()

	r3, err := p.Acquire(context.Background())
	require.NoError(t, err)
	r3()
}

func TestPool_SaturatedTimesOut(t *testing.T) {
	p := NewPool(1, 10*time.Millisecond)

	release, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = p.Acquire(context.Background())
	require.Error(t, err)

	var acquireErr *AcquireError
	require.ErrorAs(t, err, &acquireErr)
	assert.Contains(t, acquireErr.Error(), "acquire database slot")
}

func TestPool_CanceledContext(t *testing.T) {
	p := NewPool(1, time.Second)

	release, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Acquire(ctx)
	var acquireErr *AcquireError
	require.ErrorAs(t, err, &acquireErr)
	assert.ErrorIs(t, err, context.Canceled)
}
