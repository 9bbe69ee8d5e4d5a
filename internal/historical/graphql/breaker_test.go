package graphql

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)
	require.True(t, b.Allow())

	for i := 0; i < 3; i++ {
		b.RecordResult(errors.New("timeout"))
	}
	require.False(t, b.Allow())
}

func TestCircuitBreakerClosesAfterCooldown(t *testing.T) {
	b := NewCircuitBreaker(1, time.Millisecond)
	b.RecordResult(errors.New("timeout"))
	require.False(t, b.Allow())

	b.nowFunc = func() time.Time { return time.Now().Add(time.Hour) }
	require.True(t, b.Allow())
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute)
	b.RecordResult(errors.New("timeout"))
	b.RecordResult(nil)
	b.RecordResult(errors.New("timeout"))
	require.True(t, b.Allow()) // only one consecutive failure since the reset
}
