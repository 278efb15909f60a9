package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

func TestDo_Success(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NonRetryableError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return perrors.ErrGeneration
	})
	assert.ErrorIs(t, err, perrors.ErrGeneration)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableError_EventualSuccess(t *testing.T) {
	calls := 0
	var retried []int
	cfg := Config{
		MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond,
		OnRetry: func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) },
	}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return perrors.ErrTimeout
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_RetryableError_AllFail(t *testing.T) {
	calls := 0
	cfg := Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return perrors.NewAPIError("slack", 429, "rate limit")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	err := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return perrors.ErrTimeout
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_GenericNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return errors.New("generic error")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, Backoff(cfg, 0, perrors.ErrTimeout))
	assert.Equal(t, 400*time.Millisecond, Backoff(cfg, 2, perrors.ErrTimeout))
	assert.Equal(t, time.Second, Backoff(cfg, 10, perrors.ErrTimeout))

	hinted := &perrors.APIError{Service: "slack", StatusCode: 429, RetryAfter: 700 * time.Millisecond}
	assert.Equal(t, 700*time.Millisecond, Backoff(cfg, 0, hinted))
	hinted.RetryAfter = time.Minute
	assert.Equal(t, time.Second, Backoff(cfg, 0, hinted))
}
