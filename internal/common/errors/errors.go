// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Draft workflow error codes.
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePersistenceError ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeDraftNotFound    ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeDraftTerminal    ErrorCode = "DRAFT_TERMINAL"
	ErrCodeConflict         ErrorCode = "CONFLICT_ERROR"

	ErrCodeTokenExpired    ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenMismatch   ErrorCode = "TOKEN_MISMATCH"
	ErrCodeTooManyAttempts ErrorCode = "TOO_MANY_ATTEMPTS"

	ErrCodeTerminalActionFailed ErrorCode = "TERMINAL_ACTION_FAILED"

	ErrCodeEmailSendFailed        ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeDraftNotCompleted ErrorCode = "DRAFT_NOT_COMPLETED"
	ErrCodeBankSubmitFailed  ErrorCode = "BANK_SUBMIT_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeTimeout           ErrorCode = "TIMEOUT_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable field validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable storage-layer error. The in-memory
// form state is never lost on this error; callers retry the same payload.
func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceError,
		Message:   "Draft store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftNotFoundError creates a non-retryable lookup error.
func NewDraftNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftNotFound,
		Message:   "Application draft not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftTerminalError creates a non-retryable error for edits against a
// declined or removed draft.
func NewDraftTerminalError(applicationID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftTerminal,
		Message:   "Draft is closed and no longer accepts edits",
		Details:   fmt.Sprintf("applicationId: %s, status: %s", applicationID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConflictError creates a non-retryable optimistic-concurrency error.
// The caller must reload the draft before retrying with fresh state.
func NewConflictError(applicationID string, expectedVersion int) *StandardError {
	return &StandardError{
		Code:      ErrCodeConflict,
		Message:   "Draft was modified by another writer",
		Details:   fmt.Sprintf("applicationId: %s, expectedVersion: %d", applicationID, expectedVersion),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenExpiredError creates a non-retryable access-link expiry error.
func NewTokenExpiredError(applicationID string, expiresAt time.Time) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenExpired,
		Message:   "Access link has expired, request a new one",
		Details:   fmt.Sprintf("applicationId: %s, expiredAt: %s", applicationID, expiresAt.Format(time.RFC3339)),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenMismatchError creates a non-retryable incorrect-code error.
func NewTokenMismatchError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenMismatch,
		Message:   "Incorrect access code",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTooManyAttemptsError creates a non-retryable rate-limit error.
func NewTooManyAttemptsError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTooManyAttempts,
		Message:   "Too many failed access attempts",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTerminalActionFailedError creates a retryable error covering the combined
// status update + action log append.
func NewTerminalActionFailedError(applicationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTerminalActionFailed,
		Message:   "Decline/remove action did not complete",
		Details:   fmt.Sprintf("applicationId: %s, error: %s", applicationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a retryable email delivery error.
func NewEmailSendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Access link email delivery failed",
		Details:   fmt.Sprintf("recipient: %s, error: %s", recipient, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Staff notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftNotCompletedError creates a non-retryable routing precondition error.
func NewDraftNotCompletedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftNotCompleted,
		Message:   "Application must be completed before bank routing",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBankSubmitFailedError creates a retryable partner submission error.
func NewBankSubmitFailedError(bankID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBankSubmitFailed,
		Message:   "Partner bank submission failed",
		Details:   fmt.Sprintf("bankId: %s, error: %s", bankID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Application search query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceError,
		ErrCodeTerminalActionFailed,
		ErrCodeEmailSendFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBankSubmitFailed,
		ErrCodeSearchQueryFailed:
		return 3 // Retryable technical errors

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "ATTEMPTS"):
		return "ACCESS"
	case strings.Contains(codeStr, "DRAFT") || strings.Contains(codeStr, "CONFLICT"):
		return "DRAFT"
	case strings.Contains(codeStr, "TERMINAL_ACTION"):
		return "ACTION_LOG"
	case strings.Contains(codeStr, "BANK"):
		return "ROUTING"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "NOTIFICATION"):
		return "COMMUNICATION"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
