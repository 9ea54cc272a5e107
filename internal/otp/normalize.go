package otp

import "strings"

var keyReplacer = strings.NewReplacer(
	"@", "_at_",
	".", "_",
	"/", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
)

// Normalize convierte una dirección en clave de store: trim, minúsculas,
// "@" → "_at_" y cualquier caracter reservado de path → "_".
func Normalize(address string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(address)))
}
