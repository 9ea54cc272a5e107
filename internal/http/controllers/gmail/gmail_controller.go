// Package gmail contiene el controller de /gmail/*.
package gmail

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellomail/internal/gmail"
	dto "github.com/dropDatabas3/hellomail/internal/http/dto/gmail"
	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	"github.com/dropDatabas3/hellomail/internal/http/helpers"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
)

// Service es lo que el controller usa del manager Gmail.
type Service interface {
	AuthorizationURL(userID string) (string, error)
	HandleCallback(ctx context.Context, code, state, providerErr string) (*gmail.CallbackResult, error)
	Status(ctx context.Context, userID string) (*gmail.Status, error)
	Disconnect(ctx context.Context, userID string) error
	SendMail(ctx context.Context, req gmail.SendRequest) (string, error)
	SendTemplate(ctx context.Context, req gmail.TemplateSendRequest) (string, error)
}

var _ Service = (*gmail.Manager)(nil)

type GmailController struct {
	service Service
}

func NewGmailController(service Service) *GmailController {
	return &GmailController{service: service}
}

var errUserIDRequired = httperrors.ErrValidation.WithMessage("userId is required")

// AuthURL maneja GET /gmail/auth-url?userId=
func (c *GmailController) AuthURL(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	u, err := c.service.AuthorizationURL(userID)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AuthURLResponse{URL: u})
}

// Callback maneja GET /gmail/callback. Responde HTML: lo abre el navegador del usuario.
func (c *GmailController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GmailController.Callback"))

	q := r.URL.Query()
	res, err := c.service.HandleCallback(ctx, q.Get("code"), q.Get("state"), q.Get("error"))
	if err != nil {
		appErr := mapError(err)
		log.Warn("oauth callback failed", logger.Err(err), logger.Status(appErr.HTTPStatus))
		renderCallback(w, appErr.HTTPStatus, callbackPage{
			Title:   "Connection failed",
			Message: callbackFailureMessage(err),
		})
		return
	}
	log.Info("oauth callback completed", logger.UserID(res.UserID))
	renderCallback(w, http.StatusOK, callbackPage{
		OK:      true,
		Title:   "Gmail connected",
		Message: "Your Gmail account is now connected.",
		Email:   res.Email,
	})
}

// Status maneja GET /gmail/status?userId=
func (c *GmailController) Status(w http.ResponseWriter, r *http.Request) {
	userID := helpers.QueryString(r, "userId")
	if userID == "" {
		httperrors.WriteError(w, errUserIDRequired)
		return
	}
	st, err := c.service.Status(r.Context(), userID)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.StatusResponse{
		Connected:   st.Connected,
		Email:       st.Email,
		ConnectedAt: st.ConnectedAt,
	})
}

// Disconnect maneja POST /gmail/disconnect
func (c *GmailController) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req dto.DisconnectRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if detail, ok := helpers.Validate(req); !ok {
		httperrors.WriteError(w, errUserIDRequired.WithDetail(detail))
		return
	}
	if err := c.service.Disconnect(r.Context(), req.UserID); err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Send maneja POST /gmail/send
func (c *GmailController) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GmailController.Send"))

	var req dto.SendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if detail, ok := helpers.Validate(req); !ok {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(detail))
		return
	}

	id, err := c.service.SendMail(ctx, gmail.SendRequest{
		UserID:  req.UserID,
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		log.Warn("send failed", logger.UserID(req.UserID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SendResponse{Success: true, MessageID: id})
}

// SendTemplate maneja POST /gmail/send-template
func (c *GmailController) SendTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GmailController.SendTemplate"))

	var req dto.SendTemplateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if detail, ok := helpers.Validate(req); !ok {
		httperrors.WriteError(w, httperrors.ErrValidation.WithDetail(detail))
		return
	}

	id, err := c.service.SendTemplate(ctx, gmail.TemplateSendRequest{
		UserID:     req.UserID,
		To:         req.To,
		Cc:         req.Cc,
		Bcc:        req.Bcc,
		TemplateID: req.TemplateID,
		Variables:  req.Variables,
	})
	if err != nil {
		log.Warn("template send failed", logger.UserID(req.UserID), logger.TemplateID(req.TemplateID), logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SendResponse{Success: true, MessageID: id})
}

func mapError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, gmail.ErrInvalidInput), errors.Is(err, gmail.ErrInvalidState):
		return httperrors.ErrValidation.WithDetail(err.Error())
	case gmail.ReconnectRequired(err):
		return httperrors.ErrReconnectRequired.WithDetail(err.Error()).WithCause(err)
	case errors.Is(err, gmail.ErrTemplateNotFound):
		return httperrors.ErrNotFound.WithMessage("Template not found")
	case errors.Is(err, gmail.ErrProvider):
		return httperrors.ErrProvider.WithCause(err)
	case errors.Is(err, gmail.ErrDispatch):
		return httperrors.ErrDispatch.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

func callbackFailureMessage(err error) string {
	switch {
	case errors.Is(err, gmail.ErrProvider):
		return "Google did not authorize the connection. Please try again."
	case errors.Is(err, gmail.ErrMissingRefreshToken):
		return "Google did not grant offline access. Remove the app from your Google account permissions and connect again."
	case errors.Is(err, gmail.ErrInvalidInput), errors.Is(err, gmail.ErrInvalidState):
		return "The authorization link is invalid or expired. Please start the connection again."
	default:
		return "Something went wrong while connecting your account. Please try again."
	}
}
