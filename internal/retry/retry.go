package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls backoff behavior for one class of operation.
type Config struct {
	MaxAttempts         int           `json:"max_attempts"`
	InitialInterval     time.Duration `json:"initial_interval"`
	MaxInterval         time.Duration `json:"max_interval"`
	BackoffFactor       float64       `json:"backoff_factor"`
	RandomizationFactor float64       `json:"randomization_factor"`
	EnableJitter        bool          `json:"enable_jitter"`
}

// DefaultConfig suits most internal operations.
var DefaultConfig = &Config{
	MaxAttempts:         5,
	InitialInterval:     100 * time.Millisecond,
	MaxInterval:         30 * time.Second,
	BackoffFactor:       2.0,
	RandomizationFactor: 0.1,
	EnableJitter:        true,
}

// NetworkRetryConfig suits node RPC, explorer and price API calls.
var NetworkRetryConfig = &Config{
	MaxAttempts:         3,
	InitialInterval:     500 * time.Millisecond,
	MaxInterval:         10 * time.Second,
	BackoffFactor:       2.0,
	RandomizationFactor: 0.2,
	EnableJitter:        true,
}

// CriticalRetryConfig suits operations that must not be dropped, like
// persisting alert state.
var CriticalRetryConfig = &Config{
	MaxAttempts:         10,
	InitialInterval:     50 * time.Millisecond,
	MaxInterval:         60 * time.Second,
	BackoffFactor:       1.5,
	RandomizationFactor: 0.15,
	EnableJitter:        true,
}

// RetryableError lets an error declare its own retryability.
type RetryableError interface {
	error
	IsRetryable() bool
}

type retryableError struct {
	err       error
	retryable bool
}

func (r *retryableError) Error() string     { return r.err.Error() }
func (r *retryableError) IsRetryable() bool { return r.retryable }
func (r *retryableError) Unwrap() error     { return r.err }

// NewRetryableError wraps an error with an explicit retryability verdict.
func NewRetryableError(err error, retryable bool) RetryableError {
	return &retryableError{err: err, retryable: retryable}
}

// transientFragments are substrings of errors worth retrying: transport
// hiccups and upstream rate limiting from the node, explorer or price API.
var transientFragments = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"i/o timeout",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"node not ready",
	"missing trie node",
	"header not found",
	"unexpected status 429",
	"unexpected status 502",
	"unexpected status 503",
}

// IsRetryableError classifies an error, preferring the error's own verdict
// over substring matching.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if re, ok := err.(RetryableError); ok {
		return re.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Retrier executes operations with exponential backoff and jitter.
type Retrier struct {
	config *Config
	logger *logrus.Logger
	rand   *rand.Rand
}

// NewRetrier creates a retrier; a nil config falls back to DefaultConfig.
func NewRetrier(config *Config, logger *logrus.Logger) *Retrier {
	if config == nil {
		config = DefaultConfig
	}
	return &Retrier{
		config: config,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ExecuteFunc is one retryable attempt.
type ExecuteFunc func() error

// Execute runs fn until it succeeds, exhausts attempts, fails permanently or
// the context ends.
func (r *Retrier) Execute(ctx context.Context, operation string, fn ExecuteFunc) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				r.logger.Debugf("operation %q succeeded on attempt %d", operation, attempt)
			}
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			r.logger.Debugf("operation %q failed permanently: %v", operation, err)
			return err
		}
		if attempt == r.config.MaxAttempts {
			r.logger.Errorf("operation %q failed after %d attempts: %v", operation, attempt, err)
			return fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}

		delay := r.calculateDelay(attempt)
		r.logger.Debugf("operation %q attempt %d failed: %v, retrying in %v", operation, attempt, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialInterval) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if delay > float64(r.config.MaxInterval) {
		delay = float64(r.config.MaxInterval)
	}

	if r.config.EnableJitter {
		jitter := delay * r.config.RandomizationFactor
		delay = delay - jitter + r.rand.Float64()*jitter*2
		if delay < 0 {
			delay = float64(r.config.InitialInterval)
		}
	}
	return time.Duration(delay)
}

// RetryNetworkOperation is a one-shot helper for network calls.
func RetryNetworkOperation(ctx context.Context, operation string, fn ExecuteFunc, logger *logrus.Logger) error {
	return NewRetrier(NetworkRetryConfig, logger).Execute(ctx, operation, fn)
}

// RetryCriticalOperation is a one-shot helper for must-not-drop operations.
func RetryCriticalOperation(ctx context.Context, operation string, fn ExecuteFunc, logger *logrus.Logger) error {
	return NewRetrier(CriticalRetryConfig, logger).Execute(ctx, operation, fn)
}
