package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation          ErrorCode = "VALIDATION_ERROR"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrMalformedStep       ErrorCode = "MALFORMED_STEP"
	ErrUnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	ErrInternal            ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the phenogen API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// MalformedStepError reports a step tree node that is missing required
// fields. Path holds the positions of the enclosing nested steps, outermost
// first; Position is the offending step's own position (0 when the sibling
// list itself is at fault).
type MalformedStepError struct {
	Path     []int
	Position int
	Reason   string
}

func (e *MalformedStepError) Error() string {
	return fmt.Sprintf("malformed step %s: %s", location(e.Path, e.Position), e.Reason)
}

// UnsupportedLanguageError is returned for a leaf whose language has no
// stub template.
type UnsupportedLanguageError struct {
	Language string
	Path     []int
	Position int
}

func (e *UnsupportedLanguageError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("unsupported language %q", e.Language)
	}
	return fmt.Sprintf("unsupported language %q for step %s", e.Language, location(e.Path, e.Position))
}

// DepthLimitError is returned when a step tree nests deeper than allowed.
type DepthLimitError struct {
	Limit int
	Path  []int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("step tree exceeds maximum nesting depth %d at %s", e.Limit, FormatPath(e.Path))
}

// FormatPath renders a nesting path as slash-separated positions ("3/1").
// The top level renders as "/".
func FormatPath(path []int) string {
	if len(path) == 0 {
		return "/"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "/")
}

func location(path []int, position int) string {
	if position == 0 {
		return "list at " + FormatPath(path)
	}
	if len(path) == 0 {
		return fmt.Sprintf("at position %d", position)
	}
	return fmt.Sprintf("at position %d under %s", position, FormatPath(path))
}

// AsAPIError maps composition errors onto API errors. Unknown errors map
// to INTERNAL_ERROR.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var malformed *MalformedStepError
	if errors.As(err, &malformed) {
		return &APIError{
			Code:    ErrMalformedStep,
			Message: malformed.Error(),
			Details: []FieldError{{
				Field:   "position",
				Path:    FormatPath(malformed.Path),
				Message: malformed.Reason,
			}},
		}
	}
	var lang *UnsupportedLanguageError
	if errors.As(err, &lang) {
		return &APIError{Code: ErrUnsupportedLanguage, Message: lang.Error()}
	}
	var depth *DepthLimitError
	if errors.As(err, &depth) {
		return &APIError{Code: ErrMalformedStep, Message: depth.Error()}
	}
	return &APIError{Code: ErrInternal, Message: err.Error()}
}
