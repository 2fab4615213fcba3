package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries an error code, an operator-facing message, and a separate
// user-facing message suitable for a notification.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewInvalidCredentialsError reports a failed credential check. The user may retry.
func NewInvalidCredentialsError(email string) *AppError {
	return &AppError{
		Code:        "E101",
		Message:     fmt.Sprintf("invalid credentials for %s", email),
		UserMessage: "Login failed. Please check your credentials.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewSignupFailedError reports that the identity service rejected account creation.
func NewSignupFailedError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E102",
		Message:     fmt.Sprintf("signup rejected: %s", underlyingMsg),
		UserMessage: "Failed to create account. Please try again.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewMalformedSessionError reports a corrupt durable session record. It is
// never surfaced to the user; the record is discarded and the process runs anonymous.
func NewMalformedSessionError(cause error) *AppError {
	return &AppError{
		Code:        "E103",
		Message:     "malformed session record in durable storage",
		UserMessage: "",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewStorageUnavailableError reports inaccessible durable storage. Session
// operations degrade to memory-only for the current process.
func NewStorageUnavailableError(cause error) *AppError {
	return &AppError{
		Code:        "E104",
		Message:     "durable session storage unavailable",
		UserMessage: "Settings could not be saved on this device.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Temporary problem, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("External API error: %s", apiName),
		UserMessage: "Service temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many attempts. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
