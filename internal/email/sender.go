package email

import "context"

// Sender envía un email con contenido HTML y texto plano.
// El destinatario recibe ambas versiones como multipart/alternative.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SenderFunc adapta una función a Sender.
type SenderFunc func(ctx context.Context, to, subject, htmlBody, textBody string) error

func (f SenderFunc) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	return f(ctx, to, subject, htmlBody, textBody)
}
