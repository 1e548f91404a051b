package errors

import (
	"fmt"
	"time"
)

// ErrorType buckets failures by origin.
type ErrorType int

const (
	ErrorTypeNetwork ErrorType = iota
	ErrorTypeConnection
	ErrorTypeTimeout
	ErrorTypeRateLimit

	ErrorTypeBlockchain
	ErrorTypeInvalidBlock
	ErrorTypeInvalidTransaction

	ErrorTypeData
	ErrorTypeSerialization
	ErrorTypeValidation

	ErrorTypeSystem
	ErrorTypeFileIO
	ErrorTypeConfig
	ErrorTypeState

	ErrorTypeExternalAPI
	ErrorTypeExplorer
	ErrorTypePricing
	ErrorTypeKafka
)

// ErrorSeverity ranks operational impact.
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// SentinelError is the service error type: classified, contextual and aware
// of its own retryability.
type SentinelError struct {
	Type        ErrorType              `json:"type"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     interface{}            `json:"details,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Cause       error                  `json:"cause,omitempty"`
	Retryable   bool                   `json:"retryable"`
	Component   string                 `json:"component"`
	BlockNumber *uint64                `json:"block_number,omitempty"`
	TxHash      *string                `json:"tx_hash,omitempty"`
}

func (e *SentinelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SentinelError) Unwrap() error {
	return e.Cause
}

// IsRetryable feeds the retry layer's verdict interface.
func (e *SentinelError) IsRetryable() bool {
	return e.Retryable
}

// WithContext attaches an arbitrary key/value pair.
func (e *SentinelError) WithContext(key string, value interface{}) *SentinelError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithBlockNumber pins the error to a block.
func (e *SentinelError) WithBlockNumber(blockNumber uint64) *SentinelError {
	e.BlockNumber = &blockNumber
	return e
}

// WithTxHash pins the error to a transaction.
func (e *SentinelError) WithTxHash(txHash string) *SentinelError {
	e.TxHash = &txHash
	return e
}

// NewSentinelError creates a classified error.
func NewSentinelError(errorType ErrorType, severity ErrorSeverity, code, message string) *SentinelError {
	return &SentinelError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: determineRetryable(errorType, code),
	}
}

// WrapError classifies an existing error without losing its chain.
func WrapError(err error, errorType ErrorType, severity ErrorSeverity, code, message string) *SentinelError {
	return &SentinelError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
		Retryable: determineRetryable(errorType, code),
	}
}

func determineRetryable(errorType ErrorType, code string) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeConnection, ErrorTypeTimeout:
		return true
	case ErrorTypeRateLimit:
		return true
	case ErrorTypeExternalAPI, ErrorTypeExplorer, ErrorTypePricing:
		return true
	case ErrorTypeKafka:
		return true
	case ErrorTypeBlockchain:
		return code != "INVALID_DATA"
	default:
		return false
	}
}

// Predefined errors.
var (
	ErrNetworkTimeout = NewSentinelError(
		ErrorTypeTimeout,
		SeverityMedium,
		"NETWORK_TIMEOUT",
		"network request timed out",
	)

	ErrConnectionFailed = NewSentinelError(
		ErrorTypeConnection,
		SeverityHigh,
		"CONNECTION_FAILED",
		"connection failed",
	)

	ErrRateLimitExceeded = NewSentinelError(
		ErrorTypeRateLimit,
		SeverityMedium,
		"RATE_LIMIT_EXCEEDED",
		"request rate limit exceeded",
	)

	ErrBlockNotFound = NewSentinelError(
		ErrorTypeBlockchain,
		SeverityMedium,
		"BLOCK_NOT_FOUND",
		"block not found",
	)

	ErrInvalidTransaction = NewSentinelError(
		ErrorTypeInvalidTransaction,
		SeverityMedium,
		"INVALID_TRANSACTION",
		"transaction failed validation",
	)

	ErrSerializationFailed = NewSentinelError(
		ErrorTypeSerialization,
		SeverityMedium,
		"SERIALIZATION_FAILED",
		"serialization failed",
	)

	ErrStateCorrupted = NewSentinelError(
		ErrorTypeState,
		SeverityCritical,
		"STATE_CORRUPTED",
		"persisted detection state is unreadable",
	)

	ErrConfigInvalid = NewSentinelError(
		ErrorTypeConfig,
		SeverityCritical,
		"CONFIG_INVALID",
		"configuration is invalid",
	)

	ErrExplorerAPIFailed = NewSentinelError(
		ErrorTypeExplorer,
		SeverityLow,
		"EXPLORER_API_FAILED",
		"chain explorer API call failed",
	)

	ErrPriceAPIFailed = NewSentinelError(
		ErrorTypePricing,
		SeverityLow,
		"PRICE_API_FAILED",
		"price API call failed",
	)

	ErrKafkaProduceFailed = NewSentinelError(
		ErrorTypeKafka,
		SeverityHigh,
		"KAFKA_PRODUCE_FAILED",
		"failed to publish finding to Kafka",
	)
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeNetwork:            "Network",
	ErrorTypeConnection:         "Connection",
	ErrorTypeTimeout:            "Timeout",
	ErrorTypeRateLimit:          "RateLimit",
	ErrorTypeBlockchain:         "Blockchain",
	ErrorTypeInvalidBlock:       "InvalidBlock",
	ErrorTypeInvalidTransaction: "InvalidTransaction",
	ErrorTypeData:               "Data",
	ErrorTypeSerialization:      "Serialization",
	ErrorTypeValidation:         "Validation",
	ErrorTypeSystem:             "System",
	ErrorTypeFileIO:             "FileIO",
	ErrorTypeConfig:             "Config",
	ErrorTypeState:              "State",
	ErrorTypeExternalAPI:        "ExternalAPI",
	ErrorTypeExplorer:           "Explorer",
	ErrorTypePricing:            "Pricing",
	ErrorTypeKafka:              "Kafka",
}

func (et ErrorType) String() string {
	if name, exists := errorTypeNames[et]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", et)
}

var severityNames = map[ErrorSeverity]string{
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

func (es ErrorSeverity) String() string {
	if name, exists := severityNames[es]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", es)
}

// ErrorStats aggregates recorded errors for the stats endpoint.
type ErrorStats struct {
	TotalErrors       int                   `json:"total_errors"`
	ErrorsByType      map[ErrorType]int     `json:"errors_by_type"`
	ErrorsBySeverity  map[ErrorSeverity]int `json:"errors_by_severity"`
	ErrorsByComponent map[string]int        `json:"errors_by_component"`
	RecentErrors      []*SentinelError      `json:"recent_errors"`
	LastError         *SentinelError        `json:"last_error"`
	LastErrorTime     time.Time             `json:"last_error_time"`
}

// NewErrorStats creates an empty aggregate.
func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ErrorsByType:      make(map[ErrorType]int),
		ErrorsBySeverity:  make(map[ErrorSeverity]int),
		ErrorsByComponent: make(map[string]int),
		RecentErrors:      make([]*SentinelError, 0),
	}
}

// RecordError folds one error into the aggregate, keeping the last 100.
func (es *ErrorStats) RecordError(err *SentinelError) {
	es.TotalErrors++
	es.ErrorsByType[err.Type]++
	es.ErrorsBySeverity[err.Severity]++
	if err.Component != "" {
		es.ErrorsByComponent[err.Component]++
	}

	es.LastError = err
	es.LastErrorTime = err.Timestamp

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > 100 {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// GetErrorRate returns errors per hour over the given window.
func (es *ErrorStats) GetErrorRate(duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-duration)
	recentCount := 0
	for _, err := range es.RecentErrors {
		if err.Timestamp.After(cutoff) {
			recentCount++
		}
	}

	hours := duration.Hours()
	if hours == 0 {
		return float64(recentCount)
	}
	return float64(recentCount) / hours
}
