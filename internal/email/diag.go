package email

import (
	"errors"
	"net"
	"strings"
	"time"
)

// SMTPDiag contiene información de diagnóstico de un error SMTP.
type SMTPDiag struct {
	Code       string        // auth|tls|dial|timeout|rate_limited|invalid_recipient|rejected|network|unknown
	Temporary  bool          // si conviene reintentar
	RetryAfter time.Duration // 0 si no se pudo inferir
}

// diagRule matchea si el mensaje contiene alguno de los needles.
type diagRule struct {
	code      string
	temporary bool
	needles   []string
}

// El orden importa: la primera regla que matchea gana.
var diagRules = []diagRule{
	{"timeout", true, []string{"timeout"}},
	{"dial", true, []string{"connection refused", "connectex:", "no such host", "dial tcp"}},
	{"tls", false, []string{"x509:", "tls: handshake", "tls: failed", "certificate"}},
	{"auth", false, []string{"5.7.8", "535", "username and password not accepted", "authentication failed", "auth failed"}},
	{"rate_limited", true, []string{"4.7.0", "rate limit", "try again later", "temporarily unavailable", "451", "421"}},
	{"invalid_recipient", false, []string{"5.1.1", "user unknown", "mailbox not found"}},
	{"rejected", false, []string{"5.7.1", "message rejected", "policy", "dmarc", "spf"}},
}

// DiagnoseSMTP clasifica un error SMTP para logging.
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: "unknown"}
	}
	var ne net.Error
	isNet := errors.As(err, &ne)
	if isNet && ne.Timeout() {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}

	s := strings.ToLower(err.Error())
	for _, r := range diagRules {
		for _, n := range r.needles {
			if strings.Contains(s, n) {
				d := SMTPDiag{Code: r.code, Temporary: r.temporary}
				if r.code == "rate_limited" {
					d.RetryAfter = time.Minute
				}
				return d
			}
		}
	}
	if isNet {
		return SMTPDiag{Code: "network", Temporary: true}
	}
	return SMTPDiag{Code: "unknown"}
}
