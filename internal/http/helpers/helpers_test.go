package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

func TestValidate(t *testing.T) {
	detail, ok := Validate(sample{Email: "a@b.com", OTP: "123456"})
	assert.True(t, ok)
	assert.Empty(t, detail)

	detail, ok = Validate(sample{})
	require.False(t, ok)
	assert.Contains(t, detail, "email: required")
	assert.Contains(t, detail, "otp: required")
	assert.True(t, MissingField(detail, "email"))

	detail, ok = Validate(sample{Email: "nope", OTP: "12ab"})
	require.False(t, ok)
	assert.Contains(t, detail, "email: email")
	assert.False(t, MissingField(detail, "email"))
}

func TestReadJSON(t *testing.T) {
	var v sample
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","extra":1}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	require.True(t, ReadJSON(w, r, &v))
	assert.Equal(t, "a@b.com", v.Email)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	assert.False(t, ReadJSON(w, r, &v))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	assert.False(t, ReadJSON(w, r, &v))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&bad=x", nil)
	assert.Equal(t, 20, QueryInt(r, "limit", 50))
	assert.Equal(t, 50, QueryInt(r, "bad", 50))
	assert.Equal(t, 50, QueryInt(r, "missing", 50))
}
