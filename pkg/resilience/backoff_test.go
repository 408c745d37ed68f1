package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_BoundsPerAttempt(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		name    string
		attempt int
		floor   time.Duration
	}{
		{name: "first attempt", attempt: 1, floor: 100 * time.Millisecond},
		{name: "second attempt", attempt: 2, floor: 200 * time.Millisecond},
		{name: "third attempt", attempt: 3, floor: 400 * time.Millisecond},
		{name: "fourth attempt", attempt: 4, floor: 800 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 64; i++ {
				delay := Backoff(base, tt.attempt)
				require.GreaterOrEqual(t, delay, tt.floor)
				require.Less(t, delay, tt.floor+base)
			}
		})
	}
}

func TestBackoff_StrictlyIncreasesAcrossAttempts(t *testing.T) {
	base := 50 * time.Millisecond

	// The maximum delay of attempt n is below the minimum of attempt n+1,
	// so any sampled sequence must be strictly increasing.
	prev := time.Duration(-1)
	for attempt := 1; attempt <= 5; attempt++ {
		delay := Backoff(base, attempt)
		assert.Greater(t, delay, prev, "attempt %d", attempt)
		prev = delay
	}
}

func TestBackoff_DegenerateInputs(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(0, 3))
	assert.Equal(t, time.Duration(0), Backoff(-time.Second, 1))

	// Attempts below 1 are clamped to the first attempt's window.
	delay := Backoff(100*time.Millisecond, 0)
	assert.GreaterOrEqual(t, delay, 100*time.Millisecond)
	assert.Less(t, delay, 200*time.Millisecond)
}
