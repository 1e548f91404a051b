package validation

import (
	"fmt"
	"regexp"
	"strings"

	"sentinel/internal/errors"
	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Validator screens incoming transactions before they reach the detectors.
// A malformed transaction is skipped, not fatal: one bad RPC response must
// not stall the scan loop.
type Validator struct {
	logger       *logrus.Logger
	strictMode   bool
	errorHandler *errors.ErrorHandler
}

// ValidationResult is the verdict for one object.
type ValidationResult struct {
	Valid    bool                    `json:"valid"`
	Errors   []*errors.SentinelError `json:"errors,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
	DataType string                  `json:"data_type"`
}

// NewValidator creates a validator. Strict mode turns warnings into errors.
func NewValidator(logger *logrus.Logger, strictMode bool) *Validator {
	return &Validator{
		logger:       logger,
		strictMode:   strictMode,
		errorHandler: errors.NewErrorHandler(logger),
	}
}

// ValidateTransaction checks a transaction's structural integrity.
func (v *Validator) ValidateTransaction(tx *models.Transaction) *ValidationResult {
	if tx == nil {
		return &ValidationResult{
			Valid:    false,
			Errors:   []*errors.SentinelError{errors.ErrInvalidTransaction.WithContext("reason", "transaction is nil")},
			DataType: "transaction",
		}
	}

	result := &ValidationResult{
		Valid:    true,
		DataType: "transaction",
		Errors:   make([]*errors.SentinelError, 0),
		Warnings: make([]string, 0),
	}

	if !isValidHash(tx.Hash) {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_TX_HASH", "transaction hash is malformed").WithTxHash(tx.Hash))
	}

	if tx.From == "" || !isValidAddress(tx.From) {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_FROM_ADDRESS", "sender address is malformed").WithTxHash(tx.Hash))
	}

	// Contract creation has no destination.
	if tx.To != "" && !isValidAddress(tx.To) {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_TO_ADDRESS", "receiver address is malformed").WithTxHash(tx.Hash))
	}

	if tx.Value == nil {
		result.Warnings = append(result.Warnings, "transaction value is nil")
	} else if tx.Value.Sign() < 0 {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"NEGATIVE_VALUE", "transaction value cannot be negative").WithTxHash(tx.Hash))
	}

	if tx.ChainID == 0 {
		result.Warnings = append(result.Warnings, "transaction carries no chain id")
	}

	for i := range tx.Logs {
		logResult := v.ValidateLog(&tx.Logs[i])
		if !logResult.Valid {
			if v.strictMode {
				result.Valid = false
				result.Errors = append(result.Errors, logResult.Errors...)
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("log %d failed validation", i))
			}
		}
	}

	return result
}

// ValidateLog checks one event log.
func (v *Validator) ValidateLog(log *models.LogEntry) *ValidationResult {
	if log == nil {
		return &ValidationResult{
			Valid:    false,
			Errors:   []*errors.SentinelError{errors.ErrInvalidTransaction.WithContext("reason", "log is nil")},
			DataType: "log",
		}
	}

	result := &ValidationResult{
		Valid:    true,
		DataType: "log",
		Errors:   make([]*errors.SentinelError, 0),
		Warnings: make([]string, 0),
	}

	if !isValidAddress(log.Address) || log.Address == "" {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityHigh,
				"INVALID_CONTRACT_ADDRESS", "log emitter address is malformed"))
	}

	// Solidity events carry at most four indexed parameters.
	if len(log.Topics) > 4 {
		result.Valid = false
		result.Errors = append(result.Errors,
			errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityMedium,
				"TOO_MANY_TOPICS", "log carries more than four topics"))
	}

	for i, topic := range log.Topics {
		if !isValidHash(topic) {
			result.Valid = false
			result.Errors = append(result.Errors,
				errors.NewSentinelError(errors.ErrorTypeValidation, errors.SeverityMedium,
					"INVALID_TOPIC", fmt.Sprintf("topic %d is malformed", i)))
		}
	}

	return result
}

var hashRegex = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")

func isValidHash(hash string) bool {
	if len(hash) != 66 || !strings.HasPrefix(hash, "0x") {
		return false
	}
	return hashRegex.MatchString(hash)
}

func isValidAddress(addr string) bool {
	if addr == "" {
		return true
	}
	if !strings.HasPrefix(addr, "0x") {
		return false
	}
	return common.IsHexAddress(addr)
}

// GetValidationStats exposes validator state for the stats endpoint.
func (v *Validator) GetValidationStats() map[string]interface{} {
	return map[string]interface{}{
		"strict_mode": v.strictMode,
		"error_stats": v.errorHandler.GetStats(),
	}
}

// SetStrictMode toggles strict mode at runtime.
func (v *Validator) SetStrictMode(strict bool) {
	v.strictMode = strict
	v.logger.Infof("validator strict mode set to %t", strict)
}
