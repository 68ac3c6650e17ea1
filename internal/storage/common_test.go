package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestIsTransientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"eof", fmt.Errorf("read: %w", io.EOF), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("upload: %w", context.DeadlineExceeded), false},
		{"drive rate limit", &googleapi.Error{Code: 429}, true},
		{"drive unavailable", fmt.Errorf("upload: %w", &googleapi.Error{Code: 503}), true},
		{"drive bad request", &googleapi.Error{Code: 400, Message: "invalid timeout value"}, false},
		{"permission denied", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransientError(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxRetries: 3, Backoff: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := WithRetry(t.Context(), cfg, "test", func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		t.Parallel()
		calls := 0
		permanent := errors.New("permission denied")
		err := WithRetry(t.Context(), cfg, "test", func() error {
			calls++
			return permanent
		})
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := WithRetry(t.Context(), cfg, "test", func() error {
			calls++
			return fmt.Errorf("attempt %d: broken pipe", calls)
		})
		require.EqualError(t, err, "attempt 3: broken pipe")
		assert.Equal(t, 3, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := WithRetry(ctx, cfg, "test", func() error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSplitID(t *testing.T) {
	t.Parallel()

	folder, name, err := splitID("Dhaka/female_dhaka_1.wav")
	require.NoError(t, err)
	assert.Equal(t, "Dhaka", folder)
	assert.Equal(t, "female_dhaka_1.wav", name)

	for _, id := range []string{"", "file.wav", "../x.wav", "Dhaka/../x.wav", "Dhaka/.hidden", "a/b/c.wav"} {
		_, _, err := splitID(id)
		assert.Error(t, err, id)
	}
}
