package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allCodes = []ErrorCode{
	ErrCodeInternal, ErrCodeBadRequest, ErrCodeNotFound, ErrCodeValidation, ErrCodeIO, ErrCodeUnknownError,
	ErrCodeElementNotFound, ErrCodeBasisParseFailed,
	ErrCodeUnsupportedElement, ErrCodeUnknownElement,
	ErrCodeInsufficientData, ErrCodeSynthesisWriteFailed,
	ErrCodeOrbitalInputInvalid, ErrCodeImpossibleInput,
	ErrCodeDiagnosticsWriteFailed, ErrCodeDiagnosticsReadFailed,
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "BAS_001", ErrCodeElementNotFound.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeElementNotFound, 404},
		{ErrCodeUnsupportedElement, 400},
		{ErrCodeImpossibleInput, 422},
		{ErrorCode("UNKNOWN"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "element not found in basis file", DefaultMessageForCode(ErrCodeElementNotFound))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeOrbitalInputInvalid))
	assert.False(t, IsClientError(ErrCodeDiagnosticsWriteFailed))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "BAS", ModuleForCode(ErrCodeElementNotFound))
	assert.Equal(t, "ELM", ModuleForCode(ErrCodeUnknownElement))
	assert.Equal(t, "SYN", ModuleForCode(ErrCodeInsufficientData))
	assert.Equal(t, "ORB", ModuleForCode(ErrCodeImpossibleInput))
	assert.Equal(t, "DIA", ModuleForCode(ErrCodeDiagnosticsReadFailed))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for _, code := range allCodes {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for _, code := range allCodes {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasStatus, "missing status for %s", code)
		assert.True(t, hasMessage, "missing message for %s", code)
	}
}
