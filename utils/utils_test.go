package utils

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Random code tests

func TestGenerateCode_Format(t *testing.T) {
	code, err := GenerateCode(16)
	require.NoError(t, err)

	assert.Len(t, code, 32, "16 bytes hex-encode to 32 chars")
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), code)
}

func TestGenerateCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode(16)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code generated: %s", code)
		seen[code] = true
	}
}

func TestGenerateOTP_Format(t *testing.T) {
	pin, err := GenerateOTP(4)
	require.NoError(t, err)

	assert.Len(t, pin, 4)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{4}$`), pin)
}

func TestHashPin_RoundTrip(t *testing.T) {
	hash, err := HashPin("0042")
	require.NoError(t, err)
	assert.NotEqual(t, "0042", hash)

	assert.True(t, CheckPin(hash, "0042"))
	assert.False(t, CheckPin(hash, "0043"))
	assert.False(t, CheckPin("not-a-hash", "0042"))
}

// Circuit breaker tests

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	err := cb.Execute(ctx, func() error { return nil })

	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteFailurePassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	wantErr := errors.New("publish failed")
	err := cb.Execute(ctx, func() error { return wantErr })

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, StateClosed, cb.State(), "a single failure must not trip the breaker")
}

func TestCircuitBreaker_TripsAfterFailureRatio(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	failure := errors.New("down")
	for i := 0; i < 25; i++ {
		_ = cb.Execute(ctx, func() error { return failure })
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_ContextCancelled(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.maxRequests = 2
	cb.timeout = 10 * time.Millisecond

	ctx := context.Background()
	failure := errors.New("down")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return failure })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A success in half-open closes the breaker again.
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
