package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidParam ErrorCode = "COMMON_002"
	CodeNotFound     ErrorCode = "COMMON_003"
	CodeTimeout      ErrorCode = "COMMON_004"
	CodeValidation   ErrorCode = "COMMON_005"
	CodeCacheError   ErrorCode = "COMMON_006"

	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Component resolution error codes.
const (
	// CodeComponentInvalid marks a component with neither name nor CAS number.
	// This is the only input condition rejected before the state machine runs.
	CodeComponentInvalid ErrorCode = "CMP_001"

	// CodeCompoundNotFound is an expected lookup miss, never a failure.
	CodeCompoundNotFound ErrorCode = "CMP_002"

	// CodeResolutionExhausted marks a component for which every strategy
	// (candidates, assisted retry, fallback catalog) came up empty.
	CodeResolutionExhausted ErrorCode = "CMP_003"
)

// External data-source error codes (PubChem-shaped collaborator).
const (
	CodeDataSourceUnavailable ErrorCode = "SRC_001"
	CodeDataSourceParseError  ErrorCode = "SRC_002"
	CodeDataSourceRateLimited ErrorCode = "SRC_003"
)

// Text-assistant error codes (LLM-shaped collaborator).
const (
	CodeAssistantUnavailable ErrorCode = "AI_001"
	CodeAssistantParseError  ErrorCode = "AI_002"
)

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var errorCodeHTTPStatus = map[ErrorCode]int{
	CodeInternal:     http.StatusInternalServerError,
	CodeInvalidParam: http.StatusBadRequest,
	CodeNotFound:     http.StatusNotFound,
	CodeTimeout:      http.StatusGatewayTimeout,
	CodeValidation:   http.StatusUnprocessableEntity,
	CodeCacheError:   http.StatusInternalServerError,

	CodeComponentInvalid:    http.StatusBadRequest,
	CodeCompoundNotFound:    http.StatusNotFound,
	CodeResolutionExhausted: http.StatusNotFound,

	CodeDataSourceUnavailable: http.StatusServiceUnavailable,
	CodeDataSourceParseError:  http.StatusBadGateway,
	CodeDataSourceRateLimited: http.StatusTooManyRequests,

	CodeAssistantUnavailable: http.StatusServiceUnavailable,
	CodeAssistantParseError:  http.StatusBadGateway,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
