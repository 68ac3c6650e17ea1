package storage

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/Ridwan414/shobdotori/internal/logger"
)

// Common defaults and limits.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
	DefaultTimeout      = 30 * time.Second
	DefaultFTPPort      = 21
	DefaultSSHPort      = 22

	PermDir  = 0o750
	PermFile = 0o640

	MaxComponentLength = 255

	// tempPrefix marks partial uploads; List skips them
	tempPrefix = ".upload-"

	httpTooManyRequests = 429
	httpServerError     = 500
)

// transientErrorPatterns contains substrings of errors worth retrying
var transientErrorPatterns = []string{
	"connection reset",
	"connection refused",
	"connection closed",
	"timeout",
	"temporary",
	"broken pipe",
	"no route to host",
	"EOF",
	"ssh: handshake failed",
	"resource temporarily unavailable",
}

// IsTransientError reports whether err is likely temporary.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if os.IsTimeout(err) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == httpTooManyRequests || apiErr.Code >= httpServerError
	}

	errStr := err.Error()
	for _, pattern := range transientErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// RetryConfig configures WithRetry.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultRetryBackoff
	}
	return c
}

// WithRetry runs op until it succeeds, fails with a non-transient error or
// MaxRetries attempts are used. The delay grows linearly (1x, 2x, 3x backoff).
func WithRetry(ctx context.Context, cfg RetryConfig, operation string, op func() error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := range cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if !IsTransientError(err) {
			return err
		}
		lastErr = err

		if attempt == cfg.MaxRetries-1 {
			break
		}
		GetLogger().Debug("retrying storage operation",
			logger.String("operation", operation),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", cfg.MaxRetries),
			logger.Error(err))

		timer := time.NewTimer(cfg.Backoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// validateComponent rejects names that could escape their folder.
func validateComponent(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return errors.New("empty or relative name")
	case strings.ContainsAny(name, `/\`):
		return errors.New("name contains a path separator")
	case strings.HasPrefix(name, "."):
		return errors.New("hidden names are not allowed")
	case len(name) > MaxComponentLength:
		return errors.New("name exceeds maximum length")
	}
	return nil
}

// splitID splits a folder/filename object id.
func splitID(id string) (folder, name string, err error) {
	folder, name = path.Split(id)
	folder = strings.TrimSuffix(folder, "/")
	if err := validateComponent(folder); err != nil {
		return "", "", err
	}
	if err := validateComponent(name); err != nil {
		return "", "", err
	}
	return folder, name, nil
}
