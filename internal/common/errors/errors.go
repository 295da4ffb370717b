// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors
const (
	ErrCodeInvalidRegistration ErrorCode = "INVALID_REGISTRATION"
	ErrCodeInvalidJobInput     ErrorCode = "INVALID_JOB_INPUT"
)

// Provider errors. Each one is scoped to a single facet and never aborts a profile.
const (
	ErrCodeProviderNotConfigured   ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeProviderTransportFailed ErrorCode = "PROVIDER_TRANSPORT_FAILED"
	ErrCodeProviderTimeout         ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderParseFailed     ErrorCode = "PROVIDER_PARSE_FAILED"
	ErrCodeProviderEmptyResult     ErrorCode = "PROVIDER_EMPTY_RESULT"
)

const (
	ErrCodeProfileAggregationFailed ErrorCode = "PROFILE_AGGREGATION_FAILED"
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

// WithMetadata attaches a key to the error metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first StandardError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err's chain carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
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

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidRegistrationError creates a non-retryable input error for an unusable plate.
func NewInvalidRegistrationError(raw string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRegistration,
		Message:   "Registration is empty after normalization",
		Details:   fmt.Sprintf("registration: %q", raw),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidJobInputError creates a non-retryable job variable error.
func NewInvalidJobInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobInput,
		Message:   "Job variables failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderNotConfiguredError is returned when a provider has no credentials.
func NewProviderNotConfiguredError(provider, missing string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderNotConfigured,
		Message:   fmt.Sprintf("Provider '%s' is not configured", provider),
		Details:   fmt.Sprintf("missing: %s", missing),
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTransportError creates a retryable network or HTTP status error.
func NewProviderTransportError(provider, action string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTransportFailed,
		Message:   fmt.Sprintf("Provider '%s' request failed", provider),
		Details:   fmt.Sprintf("action: %s, error: %s", action, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider, "action": action},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable timeout error.
func NewProviderTimeoutError(provider, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("Provider '%s' timeout", provider),
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider, "action": action},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderParseError creates a non-retryable error for a body that is not JSON.
func NewProviderParseError(provider, action string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderParseFailed,
		Message:   fmt.Sprintf("Provider '%s' returned malformed data", provider),
		Details:   fmt.Sprintf("action: %s, error: %s", action, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider, "action": action},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderEmptyResultError marks a well-formed response that carries no data.
func NewProviderEmptyResultError(provider, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderEmptyResult,
		Message:   fmt.Sprintf("Provider '%s' returned no data", provider),
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider, "action": action},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileAggregationFailedError wraps an unexpected failure of the aggregation itself.
func NewProfileAggregationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileAggregationFailed,
		Message:   "Technical profile aggregation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. BPMN Mapping
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRegistration:      "INVALID_REGISTRATION",
	ErrCodeInvalidJobInput:          "INVALID_JOB_INPUT",
	ErrCodeProviderNotConfigured:    "PROVIDER_NOT_CONFIGURED",
	ErrCodeProviderTransportFailed:  "PROVIDER_UNAVAILABLE",
	ErrCodeProviderTimeout:          "PROVIDER_UNAVAILABLE",
	ErrCodeProviderParseFailed:      "PROVIDER_BAD_DATA",
	ErrCodeProviderEmptyResult:      "PROVIDER_NO_DATA",
	ErrCodeProfileAggregationFailed: "PROFILE_AGGREGATION_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderTransportFailed,
		ErrCodeProfileAggregationFailed:
		return 3

	case ErrCodeProviderTimeout:
		return 2

	default:
		return 0 // Input and data errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
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
// 5. Helpers
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REGISTRATION") || strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.HasSuffix(codeStr, "NOT_CONFIGURED"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "TIMEOUT"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "PARSE"):
		return "PARSE"
	case strings.Contains(codeStr, "EMPTY"):
		return "EMPTY_RESULT"
	default:
		return "OTHER"
	}
}
