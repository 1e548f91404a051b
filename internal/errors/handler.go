package errors

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorHandler routes classified errors through per-type strategies, keeps
// aggregate stats and fans out to registered callbacks.
type ErrorHandler struct {
	logger *logrus.Logger
	stats  *ErrorStats
	mu     sync.RWMutex

	strategies map[ErrorType]ErrorStrategy
	callbacks  []ErrorCallback
	thresholds map[ErrorSeverity]ThresholdConfig
}

// ErrorStrategy decides what to do with one classified error.
type ErrorStrategy interface {
	Handle(ctx context.Context, err *SentinelError) error
}

// ErrorCallback observes every handled error.
type ErrorCallback func(err *SentinelError)

// ThresholdConfig bounds acceptable error volume per severity.
type ThresholdConfig struct {
	MaxErrorsPerHour     int           `json:"max_errors_per_hour"`
	MaxConsecutiveErrors int           `json:"max_consecutive_errors"`
	CooldownPeriod       time.Duration `json:"cooldown_period"`
}

// LoggingStrategy logs the error at a level matching its severity.
type LoggingStrategy struct {
	logger *logrus.Logger
}

// NewErrorHandler creates a handler with logging strategies and default
// thresholds installed.
func NewErrorHandler(logger *logrus.Logger) *ErrorHandler {
	eh := &ErrorHandler{
		logger:     logger,
		stats:      NewErrorStats(),
		strategies: make(map[ErrorType]ErrorStrategy),
		callbacks:  make([]ErrorCallback, 0),
		thresholds: make(map[ErrorSeverity]ThresholdConfig),
	}

	loggingStrategy := &LoggingStrategy{logger: logger}
	for errorType := range errorTypeNames {
		eh.strategies[errorType] = loggingStrategy
	}

	eh.thresholds[SeverityLow] = ThresholdConfig{
		MaxErrorsPerHour:     100,
		MaxConsecutiveErrors: 20,
		CooldownPeriod:       5 * time.Minute,
	}
	eh.thresholds[SeverityMedium] = ThresholdConfig{
		MaxErrorsPerHour:     50,
		MaxConsecutiveErrors: 10,
		CooldownPeriod:       10 * time.Minute,
	}
	eh.thresholds[SeverityHigh] = ThresholdConfig{
		MaxErrorsPerHour:     20,
		MaxConsecutiveErrors: 5,
		CooldownPeriod:       30 * time.Minute,
	}
	eh.thresholds[SeverityCritical] = ThresholdConfig{
		MaxErrorsPerHour:     5,
		MaxConsecutiveErrors: 2,
		CooldownPeriod:       time.Hour,
	}

	return eh
}

// HandleError classifies (if needed), records, fans out and applies the
// strategy for one error.
func (eh *ErrorHandler) HandleError(ctx context.Context, err error) error {
	var sentinelErr *SentinelError
	if se, ok := err.(*SentinelError); ok {
		sentinelErr = se
	} else {
		sentinelErr = WrapError(err, ErrorTypeSystem, SeverityMedium, "UNKNOWN_ERROR", "unclassified error")
	}

	eh.mu.Lock()
	eh.stats.RecordError(sentinelErr)
	eh.mu.Unlock()

	if eh.checkThresholds(sentinelErr) {
		eh.logger.Warnf("error volume exceeded threshold: %s", sentinelErr.Error())
	}

	eh.executeCallbacks(sentinelErr)
	return eh.executeStrategy(ctx, sentinelErr)
}

func (eh *ErrorHandler) checkThresholds(err *SentinelError) bool {
	threshold, exists := eh.thresholds[err.Severity]
	if !exists {
		return false
	}

	hourlyRate := eh.stats.GetErrorRate(time.Hour)
	if hourlyRate > float64(threshold.MaxErrorsPerHour) {
		eh.logger.Warnf("hourly error rate above threshold: %.2f > %d", hourlyRate, threshold.MaxErrorsPerHour)
		return true
	}
	return false
}

func (eh *ErrorHandler) executeCallbacks(err *SentinelError) {
	eh.mu.RLock()
	callbacks := make([]ErrorCallback, len(eh.callbacks))
	copy(callbacks, eh.callbacks)
	eh.mu.RUnlock()

	for _, callback := range callbacks {
		go func(cb ErrorCallback) {
			defer func() {
				if r := recover(); r != nil {
					eh.logger.Errorf("error callback panicked: %v", r)
				}
			}()
			cb(err)
		}(callback)
	}
}

func (eh *ErrorHandler) executeStrategy(ctx context.Context, err *SentinelError) error {
	strategy, exists := eh.strategies[err.Type]
	if !exists {
		strategy = &LoggingStrategy{logger: eh.logger}
	}
	return strategy.Handle(ctx, err)
}

// Handle logs the error at a level matching its severity. Critical errors do
// not abort the process: a detection service must keep scanning.
func (ls *LoggingStrategy) Handle(ctx context.Context, err *SentinelError) error {
	logEntry := ls.logger.WithFields(logrus.Fields{
		"error_type":   err.Type.String(),
		"error_code":   err.Code,
		"component":    err.Component,
		"retryable":    err.Retryable,
		"block_number": err.BlockNumber,
		"tx_hash":      err.TxHash,
		"context":      err.Context,
	})

	switch err.Severity {
	case SeverityLow:
		logEntry.Debug(err.Message)
	case SeverityMedium:
		logEntry.Warn(err.Message)
	default:
		logEntry.Error(err.Message)
	}
	return err
}

// AddCallback registers an observer for every handled error.
func (eh *ErrorHandler) AddCallback(callback ErrorCallback) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.callbacks = append(eh.callbacks, callback)
}

// SetStrategy overrides the strategy for one error type.
func (eh *ErrorHandler) SetStrategy(errorType ErrorType, strategy ErrorStrategy) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.strategies[errorType] = strategy
}

// GetStats exposes the aggregate for the stats endpoint.
func (eh *ErrorHandler) GetStats() *ErrorStats {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return eh.stats
}

// SetThreshold overrides the volume bound for one severity.
func (eh *ErrorHandler) SetThreshold(severity ErrorSeverity, config ThresholdConfig) {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.thresholds[severity] = config
}

// ClearStats resets the aggregate.
func (eh *ErrorHandler) ClearStats() {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	eh.stats = NewErrorStats()
}
