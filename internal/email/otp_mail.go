package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
	"time"
)

// OTPSubject es el asunto fijo del mail de código.
const OTPSubject = "Your verification code"

//go:embed templates/*
var templatesFS embed.FS

var (
	otpHTML = htmltpl.Must(htmltpl.ParseFS(templatesFS, "templates/otp.html"))
	otpText = texttpl.Must(texttpl.ParseFS(templatesFS, "templates/otp.txt"))
)

// OTPVars son las variables del template de código.
type OTPVars struct {
	Brand string
	Code  string
	TTL   string
}

// RenderOTP arma subject, HTML y texto del mail de código.
func RenderOTP(brand, code string, ttl time.Duration) (subject, html, text string, err error) {
	vars := OTPVars{Brand: brand, Code: code, TTL: HumanTTL(ttl)}

	var hb, tb bytes.Buffer
	if err := otpHTML.Execute(&hb, vars); err != nil {
		return "", "", "", fmt.Errorf("render otp html: %w", err)
	}
	if err := otpText.Execute(&tb, vars); err != nil {
		return "", "", "", fmt.Errorf("render otp text: %w", err)
	}
	return OTPSubject, hb.String(), tb.String(), nil
}

// HumanTTL formatea la expiración como "5 minutes", "1 hour", "30 seconds".
func HumanTTL(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return plural(int64(d.Round(time.Second)/time.Second), "second")
	}
}
