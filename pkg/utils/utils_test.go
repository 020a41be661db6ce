package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatMoney(decimal.RequireFromString("1234.555"), "usd"))
	assert.Equal(t, "1.50 XYZ", FormatMoney(decimal.RequireFromString("1.5"), "XYZ"))
	assert.Contains(t, FormatMoney(decimal.RequireFromString("8.1"), ""), "8.10")
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "3.6181", FormatPrice(decimal.RequireFromString("3.61805"), 4))
	assert.Equal(t, "150.0000", FormatPrice(decimal.NewFromInt(150), 4))
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_NotRetryable(t *testing.T) {
	permanent := errors.New("constraint failed")
	calls := 0
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Retryable:    func(err error) bool { return !errors.Is(err, permanent) },
	}
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryWithResult_Exhausted(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}
	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("busy")
	})
	assert.EqualError(t, err, "busy")
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 2}
	err := Retry(ctx, cfg, func() error { return errors.New("busy") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, CalculateBackoff(0, 10*time.Millisecond, time.Second, 2))
	assert.Equal(t, 40*time.Millisecond, CalculateBackoff(2, 10*time.Millisecond, time.Second, 2))
	assert.Equal(t, time.Second, CalculateBackoff(10, 10*time.Millisecond, time.Second, 2))
}
