package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintshield/mintshield/pkg/clock"
	appErrors "github.com/mintshield/mintshield/pkg/errors"
)

func TestTokenBucket_ConsumesToExhaustion(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(fake)

	for i := 0; i < 3; i++ {
		allowed, err := tb.Allow("client-a", 3, 1)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted", i)
	}

	allowed, err := tb.Allow("client-a", 3, 1)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(fake)

	for i := 0; i < 3; i++ {
		tb.Allow("client-a", 3, 1)
	}

	// One token per second at this refill rate
	fake.Advance(2 * time.Second)

	for i := 0; i < 2; i++ {
		allowed, err := tb.Allow("client-a", 3, 1)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := tb.Allow("client-a", 3, 1)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTokenBucket_RefillCappedAtCapacity(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(fake)

	tb.Allow("client-a", 3, 1)

	// Idle long enough to overfill many times over
	fake.Advance(time.Hour)

	admitted := 0
	for i := 0; i < 10; i++ {
		allowed, err := tb.Allow("client-a", 3, 1)
		require.NoError(t, err)
		if allowed {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestTokenBucket_IdentifiersAreIndependent(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(fake)

	allowed, err := tb.Allow("client-a", 1, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = tb.Allow("client-a", 1, 1)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = tb.Allow("client-b", 1, 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucket_InvalidParameters(t *testing.T) {
	tb := NewTokenBucket(nil)

	allowed, err := tb.Allow("client-a", 0, 1)
	assert.False(t, allowed)
	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeInvalidArgument))

	allowed, err = tb.Allow("client-a", 10, -1)
	assert.False(t, allowed)
	require.Error(t, err)
}
