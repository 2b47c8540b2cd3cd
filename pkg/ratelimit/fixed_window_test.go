package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintshield/mintshield/pkg/clock"
	appErrors "github.com/mintshield/mintshield/pkg/errors"
)

func TestFixedWindow_CountsWithinOneWindow(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fw := NewFixedWindow(fake)

	for i := 0; i < 2; i++ {
		allowed, err := fw.Allow("client-a", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	fake.Advance(30 * time.Second)
	allowed, err := fw.Allow("client-a", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFixedWindow_ResetsAtBoundary(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fw := NewFixedWindow(fake)

	fw.Allow("client-a", 1, time.Minute)

	// t=59 is still the same minute bucket
	fake.Advance(59 * time.Second)
	allowed, err := fw.Allow("client-a", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// t=61 lands in the next bucket
	fake.Advance(2 * time.Second)
	allowed, err = fw.Allow("client-a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindow_EvictsStaleCounters(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fw := NewFixedWindow(fake)

	fw.Allow("client-a", 5, time.Minute)
	fw.Allow("client-b", 5, time.Minute)

	fake.Advance(3 * time.Minute)
	fw.Allow("client-a", 5, time.Minute)

	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	assert.Len(t, fw.counters, 1)
}

func TestFixedWindow_IdentifiersAreIndependent(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fw := NewFixedWindow(fake)

	allowed, err := fw.Allow("client-a", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = fw.Allow("client-a", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = fw.Allow("client-b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindow_InvalidParameters(t *testing.T) {
	fw := NewFixedWindow(nil)

	allowed, err := fw.Allow("client-a", 0, time.Minute)
	assert.False(t, allowed)
	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeInvalidArgument))

	allowed, err = fw.Allow("client-a", 10, 500*time.Millisecond)
	assert.False(t, allowed)
	require.Error(t, err)
}
