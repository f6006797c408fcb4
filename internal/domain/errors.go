package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz / attempt lookup errors
	CodeQuizNotFound     ErrorCode = "QUIZ_NOT_FOUND"
	CodeQuestionNotFound ErrorCode = "QUESTION_NOT_FOUND"
	CodeAttemptNotFound  ErrorCode = "ATTEMPT_NOT_FOUND"

	// Admission denials. These are expected, frequent outcomes of
	// StartAttempt, not failures.
	CodeQuizNotAvailable  ErrorCode = "QUIZ_NOT_AVAILABLE"
	CodeAttemptsExhausted ErrorCode = "ATTEMPTS_EXHAUSTED"
	CodeConcurrencyLimit  ErrorCode = "CONCURRENCY_LIMIT_REACHED"

	// State errors, distinct from admission so callers can tell
	// "this attempt ended" from "you may not start one".
	CodeAttemptNotActive ErrorCode = "ATTEMPT_NOT_ACTIVE"

	// Configuration errors surfaced when quiz settings are resolved
	CodeInvalidQuizConfig ErrorCode = "INVALID_QUIZ_CONFIG"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is/errors.As chains.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a key/value pair surfaced in error responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Helper constructors for common errors

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

func NewQuestionNotFoundError(questionID string) *DomainError {
	return NewError(CodeQuestionNotFound, fmt.Sprintf("Question not found with ID: %s", questionID), nil)
}

func NewAttemptNotFoundError(attemptID string) *DomainError {
	return NewError(CodeAttemptNotFound, fmt.Sprintf("Attempt not found with ID: %s", attemptID), nil)
}

func NewQuizNotAvailableError(reason string) *DomainError {
	return NewError(CodeQuizNotAvailable, "Quiz is not available", nil).WithContext("reason", reason)
}

func NewAttemptsExhaustedError(allowed int) *DomainError {
	return NewError(CodeAttemptsExhausted, "No attempts remaining for this quiz", nil).WithContext("attempts_allowed", allowed)
}

func NewConcurrencyLimitError(limit int) *DomainError {
	return NewError(CodeConcurrencyLimit, "Maximum number of concurrent attempts reached", nil).WithContext("max_concurrent", limit)
}

func NewAttemptNotActiveError(attemptID string) *DomainError {
	return NewError(CodeAttemptNotActive, fmt.Sprintf("Attempt %s is no longer active", attemptID), nil)
}

func NewInvalidQuizConfigError(quizID string, cause error) *DomainError {
	return NewError(CodeInvalidQuizConfig, fmt.Sprintf("Quiz %s has an invalid configuration", quizID), cause)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates per-field failures into one error value.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %v", value)}
}

func NewOutOfRangeError(field string, value, min, max interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("value %v is out of range [%v, %v]", value, min, max)}
}
