// Package email envía los mails transaccionales del servicio (OTP) por SMTP.
//
// La cuenta SMTP es fija y viene de configuración; los envíos de usuarios finales
// salen por la API de Gmail (ver internal/gmail), no por acá.
package email
