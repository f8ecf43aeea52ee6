package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestDoSucceedsAfterRetry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 3, BackOff: None()}, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 2 {
			return "", errFlaky
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestDoStopsWhenNotRetryable(t *testing.T) {
	terminal := errors.New("terminal")
	calls := 0
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		BackOff:     None(),
		Retryable:   func(err error) bool { return !errors.Is(err, terminal) },
	}, func(context.Context, int) (int, error) {
		calls++
		return 0, terminal
	})
	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(_ context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("attempt " + string(rune('0'+attempt)))
	})
	require.Error(t, err)
	assert.Equal(t, "attempt 3", err.Error())
	assert.Equal(t, 3, calls)
}

func TestDoHonoursCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 2, BackOff: Exponential(5*time.Second, 0)}, func(context.Context, int) (int, error) {
		calls++
		return 0, errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDoZeroAttempts(t *testing.T) {
	_, err := Do(context.Background(), Policy{}, func(context.Context, int) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNoAttempts)
}
