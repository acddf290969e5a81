// Package errors defines the coded error taxonomy for the chat pipeline.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure.
type ErrorCode string

const (
	// ErrCodeConnectionFailed indicates the vector store or the generation
	// service is unreachable. Fatal to the current turn, never retried.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeEmptyResult indicates no candidates matched, or every candidate
	// was filtered out. Not fatal; callers render an explicit "no relevant
	// content" outcome.
	ErrCodeEmptyResult ErrorCode = "EMPTY_RESULT"
	// ErrCodeBudgetExceeded indicates the assembled context or requested
	// output exceeds the generation service's limits.
	ErrCodeBudgetExceeded ErrorCode = "BUDGET_EXCEEDED"
	// ErrCodeRateLimitExceeded indicates a quota or rate limit was hit.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeUnauthorized indicates authentication failure against an
	// external service.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTimeout indicates a bounded wait expired.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller abandoned the turn.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeInternal indicates an unexpected failure inside the pipeline.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Pipeline stages, recorded on errors so callers can tell which external
// call failed without matching on message text.
const (
	StageEmbedding = "embedding"
	StageSearch    = "search"
	StageAssemble  = "assemble"
	StageGenerate  = "generate"
	StageFacets    = "facets"
	StageStore     = "store"
)

// ChatError is a structured error for pipeline operations.
type ChatError struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error

	// Partial holds text accumulated before a mid-stream generation
	// failure. The caller decides whether to keep it; this system
	// discards it and reports the error.
	Partial string
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	switch {
	case e.Stage != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Stage, e.Message, e.Cause)
	case e.Stage != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Stage, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// WithPartial attaches the text accumulated before the failure.
func (e *ChatError) WithPartial(text string) *ChatError {
	e.Partial = text
	return e
}

// Connection creates a connection error for the given stage.
func Connection(stage, msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeConnectionFailed, Stage: stage, Message: msg, Cause: cause}
}

// EmptyResult creates an empty-result error for the search stage.
func EmptyResult(msg string) *ChatError {
	return &ChatError{Code: ErrCodeEmptyResult, Stage: StageSearch, Message: msg}
}

// BudgetExceeded creates a budget error with remediation guidance.
func BudgetExceeded(stage, msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeBudgetExceeded, Stage: stage, Message: msg, Cause: cause}
}

// RateLimited creates a rate limit error.
func RateLimited(stage, msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeRateLimitExceeded, Stage: stage, Message: msg, Cause: cause}
}

// Unauthorized creates an authentication error.
func Unauthorized(stage, msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeUnauthorized, Stage: stage, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ChatError {
	return &ChatError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Timeout creates a timeout error for the given stage.
func Timeout(stage, msg string) *ChatError {
	return &ChatError{Code: ErrCodeTimeout, Stage: stage, Message: msg}
}

// Canceled creates a cancellation error.
func Canceled(stage string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeCanceled, Stage: stage, Message: "operation canceled", Cause: cause}
}

// Internal creates an internal error.
func Internal(stage, msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeInternal, Stage: stage, Message: msg, Cause: cause}
}

// IsCode reports whether err (or anything it wraps) carries the code.
func IsCode(err error, code ErrorCode) bool {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Code == code
	}
	return false
}

// CodeOf extracts the error code, or the default if err is not a ChatError.
func CodeOf(err error, defaultCode ErrorCode) ErrorCode {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Code
	}
	return defaultCode
}

// StageOf extracts the pipeline stage recorded on the error, if any.
func StageOf(err error) string {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Stage
	}
	return ""
}
