package gmail

import (
	"context"

	"github.com/dropDatabas3/hellomail/internal/oauth/google"
)

// Provider es el proveedor OAuth + API de envío. Lo implementa *google.Client.
type Provider interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*google.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*google.TokenResponse, error)
	Revoke(ctx context.Context, token string) error
	AccountEmail(ctx context.Context, accessToken string) (string, error)
	SendRaw(ctx context.Context, accessToken, raw string) (string, error)
}

var _ Provider = (*google.Client)(nil)
