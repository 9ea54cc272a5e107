package gmail

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed callback.html
var callbackHTML string

var callbackTmpl = template.Must(template.New("callback").Parse(callbackHTML))

type callbackPage struct {
	OK      bool
	Title   string
	Message string
	Email   string
}

// la CSP de API bloquea estilos; esta página solo necesita los inline
const callbackCSP = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'; base-uri 'none'"

func renderCallback(w http.ResponseWriter, status int, p callbackPage) {
	var buf bytes.Buffer
	if err := callbackTmpl.Execute(&buf, p); err != nil {
		http.Error(w, p.Title, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", callbackCSP)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
