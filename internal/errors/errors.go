// Package errors provides the structured error types returned by the aviso
// generation pipeline. Every failure carries a stable code and a category so
// callers can branch with errors.Is against the category sentinels.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// Category groups error codes by who has to act on them.
type Category string

const (
	// CategoryConfiguration covers problems with static setup (unknown
	// activity types, malformed configuration files).
	CategoryConfiguration Category = "configuration"

	// CategoryInput covers requests that cannot be processed as given.
	CategoryInput Category = "input"

	// CategoryDependency covers failures of injected collaborators
	// (artifact store, history store, subject profile lookup).
	CategoryDependency Category = "dependency"

	// CategoryInternal covers failures that indicate a bug.
	CategoryInternal Category = "internal"
)

// Category sentinels. A StandardError matches the sentinel of its category
// under errors.Is.
var (
	ErrConfiguration = stderrors.New("configuration error")
	ErrInput         = stderrors.New("input error")
	ErrDependency    = stderrors.New("dependency error")
	ErrInternal      = stderrors.New("internal error")
)

// =============================================================================
// ERROR CODES
// =============================================================================

// ErrorCode represents a stable, machine readable error code.
type ErrorCode string

// Configuration errors
const (
	ErrCodeUnknownActivity ErrorCode = "UNKNOWN_ACTIVITY_TYPE"
	ErrCodeInvalidConfig   ErrorCode = "INVALID_CONFIGURATION"
)

// Input errors
const (
	ErrCodeMissingPeriod     ErrorCode = "MISSING_PERIOD"
	ErrCodeMissingActivity   ErrorCode = "MISSING_ACTIVITY"
	ErrCodeEmptyRecordSet    ErrorCode = "EMPTY_RECORD_SET"
	ErrCodeZeroWithRecords   ErrorCode = "ZERO_WITH_RECORDS"
	ErrCodeRecordMismatch    ErrorCode = "RECORD_MISMATCH"
	ErrCodeSubjectIncomplete ErrorCode = "SUBJECT_INCOMPLETE"
	ErrCodeRecordLimit       ErrorCode = "RECORD_LIMIT_EXCEEDED"
	ErrCodeUnreadableInput   ErrorCode = "UNREADABLE_INPUT"
)

// Dependency errors
const (
	ErrCodeSubjectNotFound ErrorCode = "SUBJECT_NOT_FOUND"
	ErrCodeStorageFailed   ErrorCode = "STORAGE_FAILED"
	ErrCodeHistoryFailed   ErrorCode = "HISTORY_FAILED"
)

// Internal errors
const (
	ErrCodeSerializationFailed ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeUnknownCommand      ErrorCode = "UNKNOWN_COMMAND"
)

var codeCategories = map[ErrorCode]Category{
	ErrCodeUnknownActivity:     CategoryConfiguration,
	ErrCodeInvalidConfig:       CategoryConfiguration,
	ErrCodeMissingPeriod:       CategoryInput,
	ErrCodeMissingActivity:     CategoryInput,
	ErrCodeEmptyRecordSet:      CategoryInput,
	ErrCodeZeroWithRecords:     CategoryInput,
	ErrCodeRecordMismatch:      CategoryInput,
	ErrCodeSubjectIncomplete:   CategoryInput,
	ErrCodeRecordLimit:         CategoryInput,
	ErrCodeUnreadableInput:     CategoryInput,
	ErrCodeSubjectNotFound:     CategoryDependency,
	ErrCodeStorageFailed:       CategoryDependency,
	ErrCodeHistoryFailed:       CategoryDependency,
	ErrCodeSerializationFailed: CategoryInternal,
	ErrCodeUnknownCommand:      CategoryInternal,
}

// CategoryOf returns the category a code belongs to. Unknown codes are
// internal.
func CategoryOf(code ErrorCode) Category {
	if c, ok := codeCategories[code]; ok {
		return c
	}
	return CategoryInternal
}

// =============================================================================
// STANDARD ERROR
// =============================================================================

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Category  Category               `json:"category"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func (e *StandardError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s[%s]: %s", e.Category, e.Code, e.Message))
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StandardError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of this error's category, or a
// StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Category == CategoryConfiguration
	case ErrInput:
		return e.Category == CategoryInput
	case ErrDependency:
		return e.Category == CategoryDependency
	case ErrInternal:
		return e.Category == CategoryInternal
	}
	var other *StandardError
	if stderrors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// New creates a StandardError with the category implied by code.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Category:  CategoryOf(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *StandardError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a StandardError around an underlying cause.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	e := New(code, message)
	e.Err = err
	return e
}

// NewUnknownActivityError is returned when an activity type is not registered.
func NewUnknownActivityError(activity string) *StandardError {
	e := New(ErrCodeUnknownActivity, "activity type is not registered")
	e.Details = fmt.Sprintf("activity=%q", activity)
	return e.WithMetadata("activity", activity)
}

// NewStorageError wraps a failure of the artifact store.
func NewStorageError(key string, err error) *StandardError {
	e := Wrap(ErrCodeStorageFailed, "failed to store artifact", err)
	e.Details = fmt.Sprintf("key=%s", key)
	return e
}

// NewHistoryError wraps a failure of the history or record status store.
func NewHistoryError(operation string, err error) *StandardError {
	e := Wrap(ErrCodeHistoryFailed, "failed to persist generation history", err)
	e.Details = fmt.Sprintf("operation=%s", operation)
	return e
}

// =============================================================================
// HELPERS
// =============================================================================

// CodeOf extracts the error code from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return stderrors.Is(err, ErrConfiguration) }

// IsInput reports whether err is an input error.
func IsInput(err error) bool { return stderrors.Is(err, ErrInput) }

// IsDependency reports whether err is a dependency error.
func IsDependency(err error) bool { return stderrors.Is(err, ErrDependency) }
