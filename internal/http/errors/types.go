// Package errors define los errores HTTP de la API y su serialización.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"error"`
	Detail     string         `json:"detail,omitempty"`
	Extra      map[string]any `json:"-"` // campos adicionales en el body (attemptsRemaining, reconnect)
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// FromError convierte err en *AppError; lo desconocido es 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// Los With* devuelven una COPIA para no mutar el catálogo.

func (e *AppError) WithDetail(detail string) *AppError {
	n := *e
	n.Detail = detail
	return &n
}

func (e *AppError) WithMessage(msg string) *AppError {
	n := *e
	n.Message = msg
	return &n
}

func (e *AppError) WithCause(err error) *AppError {
	n := *e
	n.Err = err
	return &n
}

func (e *AppError) WithExtra(key string, v any) *AppError {
	n := *e
	n.Extra = make(map[string]any, len(e.Extra)+1)
	for k, val := range e.Extra {
		n.Extra[k] = val
	}
	n.Extra[key] = v
	return &n
}

// =================================================================================
// CATÁLOGO
// =================================================================================

// 4xx genéricos
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "One or more fields are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Please try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// OTP
var (
	ErrOTPNotFound = &AppError{
		Code:       "OTP_NOT_FOUND",
		Message:    "Code not found. Please request a new code.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrOTPAttemptsExhausted = &AppError{
		Code:       "OTP_ATTEMPTS_EXHAUSTED",
		Message:    "Too many attempts. Please request a new code.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrOTPExpired = &AppError{
		Code:       "OTP_EXPIRED",
		Message:    "Code expired. Please request a new code.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrOTPMismatch = &AppError{
		Code:       "OTP_MISMATCH",
		Message:    "Invalid code.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrOTPDispatch = &AppError{
		Code:       "OTP_DISPATCH_FAILED",
		Message:    "Failed to send OTP",
		HTTPStatus: http.StatusBadGateway,
	}
)

// Gmail
var (
	ErrReconnectRequired = &AppError{
		Code:       "RECONNECT_REQUIRED",
		Message:    "Gmail connection is missing or expired. Please reconnect your account.",
		HTTPStatus: http.StatusUnauthorized,
		Extra:      map[string]any{"reconnect": true},
	}

	ErrProvider = &AppError{
		Code:       "PROVIDER_ERROR",
		Message:    "The email provider rejected the request.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrDispatch = &AppError{
		Code:       "DISPATCH_FAILED",
		Message:    "Failed to send email",
		HTTPStatus: http.StatusBadGateway,
	}
)

// 5xx
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "The service is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
