package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_AdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	assert.Equal(t, start, fake.Now())

	fake.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), fake.Now())

	pinned := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fake.Set(pinned)
	assert.Equal(t, pinned, fake.Now())
}

func TestFake_AfterFiresImmediatelyAndRecordsSleeps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	select {
	case fired := <-fake.After(2 * time.Second):
		assert.Equal(t, start.Add(2*time.Second), fired)
	default:
		t.Fatal("After should fire without blocking")
	}

	<-fake.After(3 * time.Second)

	require.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, fake.Sleeps())
	assert.Equal(t, start.Add(5*time.Second), fake.Now())
}

func TestReal_Now(t *testing.T) {
	clk := New()

	before := time.Now()
	now := clk.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}
