package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrTypeDecode            ErrorType = "DECODE"
	ErrTypeInvalidParameter  ErrorType = "INVALID_PARAMETER"
	ErrTypeInsufficientData  ErrorType = "INSUFFICIENT_DATA"
	ErrTypeParsing           ErrorType = "PARSING"
	ErrTypeConfig            ErrorType = "CONFIG"
	ErrTypeIO                ErrorType = "IO"

	// ErrTypeInternal is reported for errors that are not AppErrors.
	ErrTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNotFoundError reports a dataset whose resolved path does not exist.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewUnsupportedFormatError reports a file extension no parser handles.
func NewUnsupportedFormatError(path, ext string) *AppError {
	return NewAppError(ErrTypeUnsupportedFormat,
		fmt.Sprintf("unsupported file format %q for %s", ext, path), nil).
		WithContext("path", path)
}

// NewDecodeError reports that none of the tried encodings could decode the file.
func NewDecodeError(path string, tried []string, cause error) *AppError {
	return NewAppError(ErrTypeDecode,
		fmt.Sprintf("unable to decode %s with encodings [%s]", path, strings.Join(tried, ", ")), cause).
		WithContext("path", path).
		WithContext("encodings", tried)
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(message string) *AppError {
	return NewAppError(ErrTypeInvalidParameter, message, nil)
}

// NewInsufficientDataError creates an insufficient data error
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewIOError creates an I/O error
func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or ErrTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrTypeInternal
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// MessageOf returns the message of the first AppError in err's chain
// including its cause, or err.Error() when there is none.
func MessageOf(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause != nil {
		return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
	}
	return appErr.Message
}
