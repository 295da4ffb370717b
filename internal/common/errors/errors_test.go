package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_FindsWrappedStandardError(t *testing.T) {
	err := fmt.Errorf("identity facet: %w", NewProviderTimeoutError("sws", "GET_INITIAL_SUBJECTS"))

	assert.True(t, HasCode(err, ErrCodeProviderTimeout))
	assert.False(t, HasCode(err, ErrCodeProviderParseFailed))
	assert.False(t, HasCode(nil, ErrCodeProviderTimeout))
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("plain")))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{
			name:        "invalid registration is a business error",
			err:         NewInvalidRegistrationError("   "),
			wantCode:    "INVALID_REGISTRATION",
			wantRetries: 0,
		},
		{
			name:        "transport failure is retried",
			err:         NewProviderTransportError("sws", "REPAIR_CATEGORIES", fmt.Errorf("connection refused")),
			wantCode:    "PROVIDER_UNAVAILABLE",
			wantRetries: 3,
		},
		{
			name:        "timeout is retried less",
			err:         NewProviderTimeoutError("ukvd", "VehicleDetails"),
			wantCode:    "PROVIDER_UNAVAILABLE",
			wantRetries: 2,
		},
		{
			name:        "parse failure is not retried",
			err:         NewProviderParseError("sws", "GET_LUBRICANTS", fmt.Errorf("unexpected EOF")),
			wantCode:    "PROVIDER_BAD_DATA",
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestNormalizeError(t *testing.T) {
	stdErr := NewProviderNotConfiguredError("sws", "api_key")
	assert.Same(t, stdErr, NormalizeError(fmt.Errorf("wrapped: %w", stdErr)))

	plain := NormalizeError(fmt.Errorf("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRegistration))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeProviderNotConfigured))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeProviderTimeout))
	assert.Equal(t, "PARSE", GetErrorCategory(ErrCodeProviderParseFailed))
	assert.Equal(t, "EMPTY_RESULT", GetErrorCategory(ErrCodeProviderEmptyResult))
}

func TestWithMetadata(t *testing.T) {
	err := NewProviderEmptyResultError("sws", "GET_ADJUSTMENTS").WithMetadata("vrm", "YM14NFL")
	assert.Equal(t, "YM14NFL", err.Metadata["vrm"])
	assert.Equal(t, "sws", err.Metadata["provider"])
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeProviderTimeout))
	assert.True(t, IsRetryableErrorCode(ErrCodeProfileAggregationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidJobInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeProviderEmptyResult))
}
