package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(failureThreshold uint32) *CircuitBreaker {
	config := &CircuitBreakerConfig{
		Name:                  "test",
		MaxRequests:           1,
		Interval:              time.Minute,
		Timeout:               time.Minute,
		FailureThreshold:      failureThreshold,
		SuccessThreshold:      1,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     100,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCircuitBreaker(config, logger)
}

func TestCircuitBreaker_PassesThroughResults(t *testing.T) {
	cb := testBreaker(3)

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	wantErr := errors.New("downstream failed")
	_, err = cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := testBreaker(2)

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, errors.New("downstream failed")
		})
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.False(t, called)
}
