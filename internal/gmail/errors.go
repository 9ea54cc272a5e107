package gmail

import "errors"

var (
	ErrInvalidInput        = errors.New("gmail: invalid input")
	ErrInvalidState        = errors.New("gmail: invalid state")
	ErrNotConnected        = errors.New("gmail: not connected")
	ErrMissingRefreshToken = errors.New("gmail: missing refresh token")
	ErrRefreshFailed       = errors.New("gmail: token refresh failed")
	ErrProvider            = errors.New("gmail: provider error")
	ErrDispatch            = errors.New("gmail: dispatch failed")
	ErrTemplateNotFound    = errors.New("gmail: template not found")
)

// ReconnectRequired reporta si el error se resuelve volviendo a conectar la cuenta.
func ReconnectRequired(err error) bool {
	return errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrMissingRefreshToken) ||
		errors.Is(err, ErrRefreshFailed)
}
