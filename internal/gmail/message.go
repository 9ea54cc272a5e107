package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"

	gomail "github.com/go-mail/mail"
)

// Message es un mail de texto plano enviado desde la cuenta del usuario.
type Message struct {
	From    string
	To      string
	Cc      string
	Bcc     string
	Subject string
	Body    string
}

// parseList valida una lista "a@x.com, B <b@y.com>" y devuelve las direcciones formateadas.
func parseList(field, v string) ([]string, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	addrs, err := mail.ParseAddressList(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out, nil
}

// Raw arma el RFC-5322 y lo devuelve en base64url, como lo espera messages.send.
func (msg Message) Raw() (string, error) {
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return "", fmt.Errorf("%w: subject must be a single line", ErrInvalidInput)
	}
	to, err := parseList("to", msg.To)
	if err != nil {
		return "", err
	}
	if len(to) == 0 {
		return "", fmt.Errorf("%w: to is required", ErrInvalidInput)
	}
	cc, err := parseList("cc", msg.Cc)
	if err != nil {
		return "", err
	}
	bcc, err := parseList("bcc", msg.Bcc)
	if err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", to...)
	if len(cc) > 0 {
		m.SetHeader("Cc", cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	var buf bytes.Buffer
	// go-mail no serializa Bcc (lo usa solo como sobre SMTP). Gmail lo lee del
	// header y lo quita antes de entregar.
	if len(bcc) > 0 {
		buf.WriteString("Bcc: " + strings.Join(bcc, ", ") + "\r\n")
	}
	if _, err := m.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("gmail: build message: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}
