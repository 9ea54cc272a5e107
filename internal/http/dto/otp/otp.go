// Package otp contiene DTOs para /send-otp y /verify-otp.
package otp

type SendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

// Response es la respuesta exitosa de ambos endpoints.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
