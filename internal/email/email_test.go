package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderOTP(t *testing.T) {
	t.Parallel()
	subject, html, text, err := RenderOTP("Load Radar AI", "123456", 5*time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Your verification code", subject)
	require.Contains(t, html, "Load Radar AI")
	require.Contains(t, html, "123456")
	require.Contains(t, html, "This code expires in 5 minutes.")
	require.Contains(t, text, "Your verification code is: 123456")
	require.Contains(t, text, "5 minutes")
}

func TestRenderOTP_EscapesBrand(t *testing.T) {
	t.Parallel()
	_, html, _, err := RenderOTP("<b>x</b>", "111111", time.Minute)
	require.NoError(t, err)
	require.False(t, strings.Contains(html, "<b>x</b>"))
}

func TestHumanTTL(t *testing.T) {
	t.Parallel()
	require.Equal(t, "5 minutes", HumanTTL(5*time.Minute))
	require.Equal(t, "1 minute", HumanTTL(time.Minute))
	require.Equal(t, "2 hours", HumanTTL(2*time.Hour))
	require.Equal(t, "90 seconds", HumanTTL(90*time.Second))
}

func TestDiagnoseSMTP(t *testing.T) {
	t.Parallel()
	cases := []struct {
		msg  string
		code string
		temp bool
	}{
		{"dial tcp 1.2.3.4:587: connect: connection refused", "dial", true},
		{"535 5.7.8 Username and Password not accepted", "auth", false},
		{"421 4.7.0 Try again later", "rate_limited", true},
		{"550 5.1.1 user unknown", "invalid_recipient", false},
		{"550 5.7.1 message rejected due to policy", "rejected", false},
		{"x509: certificate signed by unknown authority", "tls", false},
		{"something odd", "unknown", false},
	}
	for _, c := range cases {
		d := DiagnoseSMTP(errors.New(c.msg))
		require.Equal(t, c.code, d.Code, c.msg)
		require.Equal(t, c.temp, d.Temporary, c.msg)
	}
	require.Equal(t, "unknown", DiagnoseSMTP(nil).Code)
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	t.Parallel()
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "a@b.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Send(ctx, "x@y.com", "s", "<p>h</p>", "t"), context.Canceled)
}

func TestSMTPSender_MessageAlternatives(t *testing.T) {
	t.Parallel()
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "OTP <otp@example.com>"})
	var sb strings.Builder
	_, err := s.message("x@y.com", "Hola", "<p>h</p>", "t").WriteTo(&sb)
	require.NoError(t, err)
	out := sb.String()
	require.Contains(t, out, "multipart/alternative")
	require.Contains(t, out, "text/plain")
	require.Contains(t, out, "text/html")
	require.Contains(t, out, "To: x@y.com")
}
