package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 2
	// DefaultBaseDelay is the base delay for exponential backoff.
	DefaultBaseDelay = 2 * time.Second
	// DefaultMaxJitterPercent is the maximum jitter percentage (0-25%).
	DefaultMaxJitterPercent = 25
)

// Config holds retry configuration.
type Config struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxJitterPercent int
	Retryable        func(error) bool // nil uses IsRetryable
	Logger           *zap.Logger      // nil for no logging
	OnRetry          func(delay time.Duration, attempt, max int, err error)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       DefaultMaxRetries,
		BaseDelay:        DefaultBaseDelay,
		MaxJitterPercent: DefaultMaxJitterPercent,
	}
}

// Operation is one attempt of a retryable action. attempt starts at 0.
type Operation func(ctx context.Context, attempt int) error

// Execute runs op, retrying retryable errors with exponential backoff and
// jitter. It returns nil on the first success, the first non-retryable
// error, the last error once retries are exhausted, or ctx.Err() if the
// context ends while waiting.
// A negative MaxRetries disables retries.
func Execute(ctx context.Context, cfg Config, op Operation) error {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxJitterPercent < 0 || cfg.MaxJitterPercent > 100 {
		cfg.MaxJitterPercent = DefaultMaxJitterPercent
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if !retryable(lastErr) {
			logger.Debug("non-retryable error, stopping", zap.Error(lastErr))
			return lastErr
		}

		if attempt >= cfg.MaxRetries {
			logger.Debug("retry attempts exhausted", zap.Int("max", cfg.MaxRetries))
			return lastErr
		}

		delay := CalculateDelay(cfg.BaseDelay, attempt, cfg.MaxJitterPercent)
		if cfg.OnRetry != nil {
			cfg.OnRetry(delay, attempt+1, cfg.MaxRetries, lastErr)
		}
		logger.Warn("retrying",
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max", cfg.MaxRetries),
			zap.Error(lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// CalculateDelay returns the delay for a given attempt using exponential backoff with jitter.
// Formula: base * 2^attempt + jitter (0-maxJitterPercent% of calculated delay)
func CalculateDelay(base time.Duration, attempt int, maxJitterPercent int) time.Duration {
	multiplier := 1 << attempt // 2^attempt (1, 2, 4, 8, ...)
	delay := base * time.Duration(multiplier)

	if maxJitterPercent > 0 {
		jitterRange := float64(delay) * float64(maxJitterPercent) / 100.0
		jitter := time.Duration(rand.Float64() * jitterRange)
		delay += jitter
	}

	return delay
}

// retryablePatterns contains error message patterns that indicate transient failures.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"network",
	"connection refused",
	"connection reset",
	"temporary failure",
	"unexpected eof",
	"service unavailable",
	"503",
	"502",
	"429",
	"too many requests",
}

// nonRetryablePatterns contains error message patterns that never succeed on retry.
var nonRetryablePatterns = []string{
	"not found",
	"unauthorized",
	"forbidden",
	"authentication",
	"authorization",
	"permission denied",
	"bad request",
	"400",
	"401",
	"403",
	"404",
}

// IsRetryable classifies an error by its message.
// Timeouts and network errors are retryable; auth and not-found errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	// Default: don't retry unknown errors (conservative approach)
	return false
}
