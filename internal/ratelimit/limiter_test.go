package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MinimumBurst(t *testing.T) {
	l := New("test", 0.5)
	require.NotNil(t, l)
	assert.Equal(t, "test", l.Name())

	// Burst is clamped to at least one token.
	assert.True(t, l.Allow())
}

func TestWait_AllowsFirstRequest(t *testing.T) {
	l := New("test", 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, l.Wait(ctx))
}

func TestWait_CancelledContext(t *testing.T) {
	l := New("test", 1)

	// Drain the initial burst so the next wait has to block.
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test")
}

func TestAllow_ExhaustsBurst(t *testing.T) {
	l := New("test", 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "burst of two is spent")
}
