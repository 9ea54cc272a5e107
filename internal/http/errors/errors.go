package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError escribe la respuesta JSON de err. Los errores que no son *AppError
// salen como 500 sin exponer la causa.
//
// Formato:
//
//	{"error":"Code expired. Please request a new code.","code":"OTP_EXPIRED"}
//	{"error":"Invalid code. 2 attempts remaining.","code":"OTP_MISMATCH","attemptsRemaining":2}
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := make(map[string]any, len(appErr.Extra)+3)
	for k, v := range appErr.Extra {
		resp[k] = v
	}
	resp["error"] = appErr.Message
	resp["code"] = appErr.Code
	if appErr.Detail != "" {
		resp["detail"] = appErr.Detail
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
