package google

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized: el access token fue rechazado (401).
	ErrUnauthorized = errors.New("google: unauthorized")
	// ErrInvalidGrant: el code o el refresh token ya no sirven.
	ErrInvalidGrant = errors.New("google: invalid grant")
)

// oauthError es el cuerpo de error de los endpoints OAuth.
type oauthError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// apiErrorBody es el cuerpo de error de las APIs de Google.
type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError describe una llamada fallida al proveedor.
type APIError struct {
	Op          string
	Status      int
	Code        string
	Description string
	Err         error
}

func newAPIError(op string, status int, code, desc string) *APIError {
	e := &APIError{Op: op, Status: status, Code: code, Description: desc}
	switch {
	case status == http.StatusUnauthorized:
		e.Err = ErrUnauthorized
	case code == "invalid_grant":
		e.Err = ErrInvalidGrant
	}
	return e
}

func (e *APIError) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("google %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("google %s: http %d %s %s", e.Op, e.Status, e.Code, e.Description)
}

func (e *APIError) Unwrap() error { return e.Err }
