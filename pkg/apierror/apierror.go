package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error once, at the boundary where it was produced.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindUnauthorized
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	default:
		return "server"
	}
}

type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Kind       Kind              `json:"-"`
	cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status, Kind: kindForStatus(status)}
}

// Validation reports input rejected before or by the backend. fields maps a
// form field name to its message and may be nil.
func Validation(message string, fields map[string]string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Fields:     fields,
		HTTPStatus: http.StatusBadRequest,
		Kind:       KindValidation,
	}
}

func Unauthorized(message string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Kind:       KindUnauthorized,
	}
}

func Network(message string, cause error) *APIError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &APIError{
		Code:       "NETWORK_ERROR",
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Kind:       KindNetwork,
		cause:      cause,
	}
}

func Server(status int, message string) *APIError {
	if status < 500 {
		status = http.StatusBadGateway
	}
	return &APIError{
		Code:       "SERVER_ERROR",
		Message:    message,
		HTTPStatus: status,
		Kind:       KindServer,
	}
}

// FromStatus maps a backend response status and its extracted message.
func FromStatus(status int, message string) *APIError {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized(message)
	case status >= 400 && status < 500:
		err := Validation(message, nil)
		err.Code = codeForStatus(status)
		err.HTTPStatus = status
		return err
	default:
		return Server(status, message)
	}
}

// KindOf returns the kind of err, treating unknown errors as server errors.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServer
}

func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func IsUnauthorized(err error) bool {
	return IsKind(err, KindUnauthorized)
}

// MessageOf returns the user-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "BAD_REQUEST"
	}
}
