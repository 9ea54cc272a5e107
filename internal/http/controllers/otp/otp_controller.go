// Package otp contiene el controller de /send-otp y /verify-otp.
package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	dto "github.com/dropDatabas3/hellomail/internal/http/dto/otp"
	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	"github.com/dropDatabas3/hellomail/internal/http/helpers"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/otp"
)

// Service es lo que el controller usa del engine OTP.
type Service interface {
	RequestChallenge(ctx context.Context, address string) error
	VerifyChallenge(ctx context.Context, address, code string) error
}

var _ Service = (*otp.Engine)(nil)

type OTPController struct {
	service Service
}

func NewOTPController(service Service) *OTPController {
	return &OTPController{service: service}
}

// SendOTP maneja POST /send-otp
func (c *OTPController) SendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OTPController.SendOTP"))

	var req dto.SendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if detail, ok := helpers.Validate(req); !ok {
		e := httperrors.ErrValidation.WithDetail(detail)
		if helpers.MissingField(detail, "email") {
			e = e.WithMessage("Email is required")
		}
		httperrors.WriteError(w, e)
		return
	}

	if err := c.service.RequestChallenge(ctx, req.Email); err != nil {
		log.Error("request challenge failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err, "Failed to send OTP"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Response{Success: true, Message: "OTP sent successfully"})
}

// VerifyOTP maneja POST /verify-otp
func (c *OTPController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OTPController.VerifyOTP"))

	var req dto.VerifyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if detail, ok := helpers.Validate(req); !ok {
		e := httperrors.ErrValidation.WithDetail(detail)
		if helpers.MissingField(detail, "email") || helpers.MissingField(detail, "otp") {
			e = e.WithMessage("Email and OTP are required")
		}
		httperrors.WriteError(w, e)
		return
	}

	if err := c.service.VerifyChallenge(ctx, req.Email, req.OTP); err != nil {
		appErr := mapError(err, "Failed to verify OTP")
		if appErr.HTTPStatus >= 500 {
			log.Error("verify challenge failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Response{Success: true, Message: "OTP verified successfully"})
}

func mapError(err error, internalMsg string) *httperrors.AppError {
	var mismatch *otp.MismatchError
	switch {
	case errors.As(err, &mismatch):
		return httperrors.ErrOTPMismatch.
			WithMessage(fmt.Sprintf("Invalid code. %d attempts remaining.", mismatch.Remaining)).
			WithExtra("attemptsRemaining", mismatch.Remaining)
	case errors.Is(err, otp.ErrInvalidInput):
		return httperrors.ErrValidation.WithDetail(err.Error())
	case errors.Is(err, otp.ErrChallengeNotFound):
		return httperrors.ErrOTPNotFound
	case errors.Is(err, otp.ErrAttemptsExhausted):
		return httperrors.ErrOTPAttemptsExhausted
	case errors.Is(err, otp.ErrExpired):
		return httperrors.ErrOTPExpired
	case errors.Is(err, otp.ErrDispatch):
		return httperrors.ErrOTPDispatch.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithMessage(internalMsg).WithCause(err)
	}
}
