package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13999: Judge client errors
// 17000-17999: Configuration errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Auth errors (10100-10199)
	TokenInvalid ErrorCode = 10100
	TokenExpired ErrorCode = 10101

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Judge Client Errors (13000-13999) ==========

	// Request preparation (13000-13099)
	LanguageNotSupported ErrorCode = 13003
	EncodingFailed       ErrorCode = 13010

	// Judge service interaction (13100-13199)
	JudgeTransportFailed ErrorCode = 13110
	JudgeTimeout         ErrorCode = 13111
	JudgeCanceled        ErrorCode = 13112
	JudgeBadResponse     ErrorCode = 13113

	// ========== Configuration Errors (17000-17999) ==========
	ConfigInvalid   ErrorCode = 17000
	APIKeyMissing   ErrorCode = 17001
	EndpointMissing ErrorCode = 17002
)

var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	TokenInvalid: "Invalid or missing token",
	TokenExpired: "Token has expired",

	CacheError: "Cache operation failed",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	LanguageNotSupported: "Programming language not supported",
	EncodingFailed:       "Malformed transport text",

	JudgeTransportFailed: "Judge service request failed",
	JudgeTimeout:         "Timed out waiting for the judge",
	JudgeCanceled:        "Judge request canceled",
	JudgeBadResponse:     "Malformed judge response",

	ConfigInvalid:   "Invalid configuration",
	APIKeyMissing:   "Judge API key is not configured",
	EndpointMissing: "Judge endpoint is not configured",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == Unauthorized, c == TokenInvalid, c == TokenExpired:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c == JudgeTransportFailed, c == JudgeBadResponse:
		return 502
	case c == JudgeTimeout, c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == EncodingFailed:
		return 400
	default:
		return 500
	}
}
