package gmail

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellomail/internal/history"
	"github.com/dropDatabas3/hellomail/internal/oauth/google"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
	"github.com/dropDatabas3/hellomail/internal/templates"
)

// SendRequest es un envío directo desde la cuenta del usuario.
type SendRequest struct {
	UserID  string
	To      string
	Cc      string
	Bcc     string
	Subject string
	Body    string
}

// TemplateSendRequest es un envío a partir de un template guardado.
type TemplateSendRequest struct {
	UserID     string
	To         string
	Cc         string
	Bcc        string
	TemplateID string
	Variables  map[string]any
}

// SendMail envía y registra el envío en el historial. Devuelve el id de Gmail.
func (m *Manager) SendMail(ctx context.Context, req SendRequest) (string, error) {
	id, err := m.send(ctx, req, "")
	metrics.RecordGmailSend("direct", sendResult(err))
	return id, err
}

// SendTemplate renderiza el template y lo envía como SendMail.
func (m *Manager) SendTemplate(ctx context.Context, req TemplateSendRequest) (string, error) {
	tpl, err := m.templates.Get(ctx, req.UserID, req.TemplateID)
	switch {
	case errors.Is(err, templates.ErrNotFound):
		metrics.RecordGmailSend("template", "not_found")
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplateID)
	case errors.Is(err, templates.ErrInvalidInput):
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case err != nil:
		return "", err
	}

	subject, body := templates.Render(*tpl, req.Variables)
	id, err := m.send(ctx, SendRequest{
		UserID:  req.UserID,
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: subject,
		Body:    body,
	}, tpl.ID)
	metrics.RecordGmailSend("template", sendResult(err))
	return id, err
}

func sendResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case ReconnectRequired(err):
		return "reconnect"
	default:
		return "error"
	}
}

func (m *Manager) send(ctx context.Context, req SendRequest, templateID string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("gmail.send"), logger.UserID(req.UserID))

	id, err := m.GetValidToken(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	raw, err := Message{
		From:    id.Email,
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		Body:    req.Body,
	}.Raw()
	if err != nil {
		return "", err
	}

	msgID, err := m.provider.SendRaw(ctx, id.AccessToken, raw)
	if err != nil {
		if errors.Is(err, google.ErrUnauthorized) {
			log.Warn("provider rejected access token", logger.Err(err))
			return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		log.Error("gmail send failed", logger.Err(err))
		return "", fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	if _, err := m.history.Append(ctx, req.UserID, history.Record{
		To:         req.To,
		Cc:         req.Cc,
		Subject:    req.Subject,
		TemplateID: templateID,
		SentAt:     m.now().UnixMilli(),
		MessageID:  msgID,
	}); err != nil {
		// el mail ya salió: no se reporta como fallo de envío
		log.Error("history append failed", logger.Err(err), logger.MessageID(msgID))
	}

	log.Info("gmail message sent", logger.MessageID(msgID))
	return msgID, nil
}
