package otp

import (
	"errors"
	"fmt"
)

// Challenge es el código vigente de una dirección. Se guarda en otpCodes/<key>.
// Los tiempos van en epoch milisegundos.
type Challenge struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"`
	Attempts  int    `json:"attempts"`
	CreatedAt int64  `json:"createdAt"`
}

var (
	ErrInvalidInput      = errors.New("otp: invalid input")
	ErrChallengeNotFound = errors.New("otp: challenge not found")
	ErrAttemptsExhausted = errors.New("otp: too many attempts")
	ErrExpired           = errors.New("otp: challenge expired")
	ErrCodeMismatch      = errors.New("otp: code mismatch")
	ErrDispatch          = errors.New("otp: dispatch failed")
)

// MismatchError es el ErrCodeMismatch con los intentos restantes.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("otp: code mismatch, %d attempts remaining", e.Remaining)
}

func (e *MismatchError) Unwrap() error { return ErrCodeMismatch }
