package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSentinelError(t *testing.T) {
	err := NewSentinelError(ErrorTypeNetwork, SeverityHigh, "TEST_ERROR", "test error")

	assert.NotNil(t, err)
	assert.Equal(t, ErrorTypeNetwork, err.Type)
	assert.Equal(t, SeverityHigh, err.Severity)
	assert.Equal(t, "TEST_ERROR", err.Code)
	assert.Equal(t, "test error", err.Message)
	assert.True(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestWrapError(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := WrapError(originalErr, ErrorTypeSystem, SeverityMedium, "WRAPPED_ERROR", "wrapped error")

	assert.NotNil(t, wrappedErr)
	assert.Equal(t, ErrorTypeSystem, wrappedErr.Type)
	assert.Equal(t, SeverityMedium, wrappedErr.Severity)
	assert.Equal(t, "WRAPPED_ERROR", wrappedErr.Code)
	assert.Equal(t, originalErr, wrappedErr.Cause)
	assert.Contains(t, wrappedErr.Error(), "original error")
}

func TestSentinelError_Error(t *testing.T) {
	err := NewSentinelError(ErrorTypeData, SeverityLow, "TEST_CODE", "test message")
	assert.Equal(t, "[TEST_CODE] test message", err.Error())

	originalErr := errors.New("original error")
	wrappedErr := WrapError(originalErr, ErrorTypeData, SeverityLow, "TEST_CODE", "test message")
	assert.Equal(t, "[TEST_CODE] test message: original error", wrappedErr.Error())
}

func TestSentinelError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := WrapError(originalErr, ErrorTypeSystem, SeverityMedium, "WRAPPED", "wrapped")
	assert.Equal(t, originalErr, wrappedErr.Unwrap())

	standaloneErr := NewSentinelError(ErrorTypeData, SeverityLow, "STANDALONE", "standalone error")
	assert.Nil(t, standaloneErr.Unwrap())
}

func TestSentinelError_IsRetryable(t *testing.T) {
	retryableErr := NewSentinelError(ErrorTypeNetwork, SeverityMedium, "NETWORK_ERROR", "network error")
	assert.True(t, retryableErr.IsRetryable())

	nonRetryableErr := NewSentinelError(ErrorTypeConfig, SeverityCritical, "CONFIG_ERROR", "config error")
	assert.False(t, nonRetryableErr.IsRetryable())
}

func TestSentinelError_WithContext(t *testing.T) {
	err := NewSentinelError(ErrorTypeBlockchain, SeverityMedium, "BLOCK_ERROR", "block error")

	err.WithContext("node_url", "https://mainnet.infura.io")
	err.WithContext("attempt", 3)

	assert.NotNil(t, err.Context)
	assert.Equal(t, "https://mainnet.infura.io", err.Context["node_url"])
	assert.Equal(t, 3, err.Context["attempt"])
}

func TestSentinelError_WithBlockNumber(t *testing.T) {
	err := NewSentinelError(ErrorTypeBlockchain, SeverityMedium, "BLOCK_ERROR", "block error")
	err.WithBlockNumber(1000000)

	assert.NotNil(t, err.BlockNumber)
	assert.Equal(t, uint64(1000000), *err.BlockNumber)
}

func TestSentinelError_WithTxHash(t *testing.T) {
	err := NewSentinelError(ErrorTypeInvalidTransaction, SeverityHigh, "TX_ERROR", "transaction error")

	txHash := "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
	err.WithTxHash(txHash)

	assert.NotNil(t, err.TxHash)
	assert.Equal(t, txHash, *err.TxHash)
}

func TestDetermineRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		code      string
		expected  bool
	}{
		{ErrorTypeNetwork, "NETWORK_TIMEOUT", true},
		{ErrorTypeConnection, "CONNECTION_FAILED", true},
		{ErrorTypeTimeout, "REQUEST_TIMEOUT", true},
		{ErrorTypeRateLimit, "RATE_LIMIT_EXCEEDED", true},
		{ErrorTypeExplorer, "EXPLORER_API_FAILED", true},
		{ErrorTypePricing, "PRICE_API_FAILED", true},
		{ErrorTypeKafka, "KAFKA_ERROR", true},
		{ErrorTypeBlockchain, "BLOCK_NOT_FOUND", true},
		{ErrorTypeBlockchain, "INVALID_DATA", false},
		{ErrorTypeConfig, "CONFIG_ERROR", false},
		{ErrorTypeFileIO, "FILE_ERROR", false},
	}

	for _, tt := range tests {
		result := determineRetryable(tt.errorType, tt.code)
		assert.Equal(t, tt.expected, result, "errorType=%v, code=%s", tt.errorType, tt.code)
	}
}

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeNetwork, "Network"},
		{ErrorTypeConnection, "Connection"},
		{ErrorTypeTimeout, "Timeout"},
		{ErrorTypeBlockchain, "Blockchain"},
		{ErrorTypeData, "Data"},
		{ErrorTypeState, "State"},
		{ErrorType(999), "Unknown(999)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.errorType.String())
	}
}

func TestErrorSeverity_String(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		expected string
	}{
		{SeverityLow, "Low"},
		{SeverityMedium, "Medium"},
		{SeverityHigh, "High"},
		{SeverityCritical, "Critical"},
		{ErrorSeverity(999), "Unknown(999)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.severity.String())
	}
}

func TestErrorStats_RecordError(t *testing.T) {
	stats := NewErrorStats()

	err1 := NewSentinelError(ErrorTypeNetwork, SeverityMedium, "NET_ERROR", "network error")
	err1.Component = "scanner"

	err2 := NewSentinelError(ErrorTypeBlockchain, SeverityHigh, "BLOCK_ERROR", "block error")
	err2.Component = "scanner"

	err3 := NewSentinelError(ErrorTypeNetwork, SeverityLow, "NET_TIMEOUT", "network timeout")
	err3.Component = "api"

	stats.RecordError(err1)
	stats.RecordError(err2)
	stats.RecordError(err3)

	assert.Equal(t, 3, stats.TotalErrors)
	assert.Equal(t, 2, stats.ErrorsByType[ErrorTypeNetwork])
	assert.Equal(t, 1, stats.ErrorsByType[ErrorTypeBlockchain])
	assert.Equal(t, 1, stats.ErrorsBySeverity[SeverityLow])
	assert.Equal(t, 1, stats.ErrorsBySeverity[SeverityMedium])
	assert.Equal(t, 1, stats.ErrorsBySeverity[SeverityHigh])
	assert.Equal(t, 2, stats.ErrorsByComponent["scanner"])
	assert.Equal(t, 1, stats.ErrorsByComponent["api"])
	assert.Equal(t, err3, stats.LastError)
	assert.Equal(t, 3, len(stats.RecentErrors))
}

func TestErrorStats_RecordError_RecentErrorsLimit(t *testing.T) {
	stats := NewErrorStats()

	for i := 0; i < 150; i++ {
		stats.RecordError(NewSentinelError(ErrorTypeNetwork, SeverityLow, "TEST_ERROR", "test error"))
	}

	assert.Equal(t, 150, stats.TotalErrors)
	assert.Equal(t, 100, len(stats.RecentErrors))
}

func TestErrorStats_GetErrorRate(t *testing.T) {
	stats := NewErrorStats()
	now := time.Now()

	for i := 0; i < 10; i++ {
		err := NewSentinelError(ErrorTypeNetwork, SeverityLow, "TEST_ERROR", "test error")
		err.Timestamp = now.Add(-time.Duration(i*5) * time.Minute)
		stats.RecentErrors = append(stats.RecentErrors, err)
	}
	for i := 0; i < 5; i++ {
		err := NewSentinelError(ErrorTypeNetwork, SeverityLow, "OLD_ERROR", "old error")
		err.Timestamp = now.Add(-time.Duration(70+i*10) * time.Minute)
		stats.RecentErrors = append(stats.RecentErrors, err)
	}

	assert.Equal(t, 10.0, stats.GetErrorRate(time.Hour))
	assert.Equal(t, 0.0, stats.GetErrorRate(0))
	assert.Equal(t, 12.0, stats.GetErrorRate(30*time.Minute))
}

func TestPredefinedErrors(t *testing.T) {
	assert.Equal(t, ErrorTypeTimeout, ErrNetworkTimeout.Type)
	assert.Equal(t, "NETWORK_TIMEOUT", ErrNetworkTimeout.Code)
	assert.True(t, ErrNetworkTimeout.Retryable)

	assert.Equal(t, ErrorTypeConnection, ErrConnectionFailed.Type)
	assert.True(t, ErrConnectionFailed.Retryable)

	assert.Equal(t, ErrorTypeState, ErrStateCorrupted.Type)
	assert.Equal(t, SeverityCritical, ErrStateCorrupted.Severity)
	assert.False(t, ErrStateCorrupted.Retryable)

	assert.Equal(t, ErrorTypeConfig, ErrConfigInvalid.Type)
	assert.Equal(t, SeverityCritical, ErrConfigInvalid.Severity)
	assert.False(t, ErrConfigInvalid.Retryable)

	assert.Equal(t, ErrorTypeKafka, ErrKafkaProduceFailed.Type)
	assert.True(t, ErrKafkaProduceFailed.Retryable)
}

func BenchmarkNewSentinelError(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewSentinelError(ErrorTypeNetwork, SeverityMedium, "BENCH_ERROR", "benchmark error")
	}
}

func BenchmarkErrorStats_RecordError(b *testing.B) {
	stats := NewErrorStats()
	err := NewSentinelError(ErrorTypeNetwork, SeverityMedium, "BENCH_ERROR", "benchmark error")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		stats.RecordError(err)
	}
}
