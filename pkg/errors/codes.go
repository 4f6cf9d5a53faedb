package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.  Codes
// are "<MODULE>_<NNN>"; the module prefix is recoverable with ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal     ErrorCode = "COMMON_001"
	ErrCodeBadRequest   ErrorCode = "COMMON_002"
	ErrCodeNotFound     ErrorCode = "COMMON_005"
	ErrCodeValidation   ErrorCode = "COMMON_010"
	ErrCodeIO           ErrorCode = "COMMON_017"
	ErrCodeUnknownError ErrorCode = "COMMON_999"
)

// Basis-file codes
const (
	ErrCodeElementNotFound  ErrorCode = "BAS_001"
	ErrCodeBasisParseFailed ErrorCode = "BAS_002"
)

// Element / shell-table codes
const (
	ErrCodeUnsupportedElement ErrorCode = "ELM_001"
	ErrCodeUnknownElement     ErrorCode = "ELM_002"
)

// Synthesis codes
const (
	ErrCodeInsufficientData     ErrorCode = "SYN_001"
	ErrCodeSynthesisWriteFailed ErrorCode = "SYN_002"
)

// Orbital codes
const (
	ErrCodeOrbitalInputInvalid ErrorCode = "ORB_001"
	ErrCodeImpossibleInput     ErrorCode = "ORB_002"
)

// Diagnostics table codes
const (
	ErrCodeDiagnosticsWriteFailed ErrorCode = "DIA_001"
	ErrCodeDiagnosticsReadFailed  ErrorCode = "DIA_002"
)

// Short aliases used at call sites.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrCodeUnknownError
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeValidation   = ErrCodeValidation
	CodeIO           = ErrCodeIO

	CodeElementNotFound        = ErrCodeElementNotFound
	CodeBasisParseFailed       = ErrCodeBasisParseFailed
	CodeUnsupportedElement     = ErrCodeUnsupportedElement
	CodeUnknownElement         = ErrCodeUnknownElement
	CodeInsufficientData       = ErrCodeInsufficientData
	CodeSynthesisWriteFailed   = ErrCodeSynthesisWriteFailed
	CodeOrbitalInputInvalid    = ErrCodeOrbitalInputInvalid
	CodeImpossibleInput        = ErrCodeImpossibleInput
	CodeDiagnosticsWriteFailed = ErrCodeDiagnosticsWriteFailed
	CodeDiagnosticsReadFailed  = ErrCodeDiagnosticsReadFailed
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeValidation:   http.StatusUnprocessableEntity,
	ErrCodeIO:           http.StatusInternalServerError,
	ErrCodeUnknownError: http.StatusInternalServerError,

	ErrCodeElementNotFound:  http.StatusNotFound,
	ErrCodeBasisParseFailed: http.StatusInternalServerError,

	ErrCodeUnsupportedElement: http.StatusBadRequest,
	ErrCodeUnknownElement:     http.StatusBadRequest,

	ErrCodeInsufficientData:     http.StatusUnprocessableEntity,
	ErrCodeSynthesisWriteFailed: http.StatusInternalServerError,

	ErrCodeOrbitalInputInvalid: http.StatusBadRequest,
	ErrCodeImpossibleInput:     http.StatusUnprocessableEntity,

	ErrCodeDiagnosticsWriteFailed: http.StatusInternalServerError,
	ErrCodeDiagnosticsReadFailed:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:     "internal error",
	ErrCodeBadRequest:   "bad request",
	ErrCodeNotFound:     "resource not found",
	ErrCodeValidation:   "validation failed",
	ErrCodeIO:           "i/o failure",
	ErrCodeUnknownError: "unknown error",

	ErrCodeElementNotFound:  "element not found in basis file",
	ErrCodeBasisParseFailed: "failed to parse basis file",

	ErrCodeUnsupportedElement: "atomic number outside the occupied-shell table",
	ErrCodeUnknownElement:     "unknown element symbol",

	ErrCodeInsufficientData:     "extended basis lacks required contracted functions",
	ErrCodeSynthesisWriteFailed: "failed to write synthesized basis file",

	ErrCodeOrbitalInputInvalid: "invalid orbital input",
	ErrCodeImpossibleInput:     "MINAO count exceeds basis size",

	ErrCodeDiagnosticsWriteFailed: "failed to append diagnostics row",
	ErrCodeDiagnosticsReadFailed:  "failed to read diagnostics table",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
