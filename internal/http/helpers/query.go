package helpers

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryString devuelve el query param trimmeado.
func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// QueryInt devuelve def si el param falta o no es entero.
func QueryInt(r *http.Request, name string, def int) int {
	v := QueryString(r, name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
