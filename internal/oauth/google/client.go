// Package google es el cliente OAuth 2.0 + Gmail API usado para las conexiones
// de usuario: URL de consentimiento, canje de código, refresh, revocación,
// email de la cuenta y envío de mensajes RFC-5322 crudos.
package google

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
)

// Endpoints permite apuntar el cliente a otro host (tests, proxies).
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	RevokeURL   string
	UserInfoURL string
	GmailURL    string // base de la Gmail API, sin "/" final
}

var DefaultEndpoints = Endpoints{
	AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:    "https://oauth2.googleapis.com/token",
	RevokeURL:   "https://oauth2.googleapis.com/revoke",
	UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	GmailURL:    "https://gmail.googleapis.com/gmail/v1",
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoints    Endpoints
	Timeout      time.Duration
}

type Client struct {
	cfg  Config
	http *resty.Client
}

// New crea el cliente; los endpoints vacíos toman el default.
func New(cfg Config) *Client {
	def := DefaultEndpoints
	ep := &cfg.Endpoints
	ep.AuthURL = orDefault(ep.AuthURL, def.AuthURL)
	ep.TokenURL = orDefault(ep.TokenURL, def.TokenURL)
	ep.RevokeURL = orDefault(ep.RevokeURL, def.RevokeURL)
	ep.UserInfoURL = orDefault(ep.UserInfoURL, def.UserInfoURL)
	ep.GmailURL = orDefault(ep.GmailURL, def.GmailURL)
	ep.GmailURL = strings.TrimRight(ep.GmailURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	cl := resty.New().SetTimeout(cfg.Timeout)
	cl.SetHeader("Accept", "application/json")
	cl.SetHeader("User-Agent", "hellomail/1.0")
	return &Client{cfg: cfg, http: cl}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// AuthURL arma la URL de consentimiento. access_type=offline + prompt=consent
// fuerzan que Google devuelva refresh_token en cada conexión.
func (c *Client) AuthURL(state string) string {
	u, _ := url.Parse(c.cfg.Endpoints.AuthURL)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	q.Set("state", state)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("include_granted_scopes", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token,omitempty"`
	RefreshTok  string `json:"refresh_token,omitempty"`
}

// ExchangeCode canjea el authorization code por tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	defer metrics.ObserveProvider("exchange")()
	return c.token(ctx, "exchange", map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"redirect_uri":  c.cfg.RedirectURL,
	})
}

// Refresh obtiene un access token nuevo. Google normalmente no rota el refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	defer metrics.ObserveProvider("refresh")()
	return c.token(ctx, "refresh", map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
	})
}

func (c *Client) token(ctx context.Context, op string, form map[string]string) (*TokenResponse, error) {
	var tr TokenResponse
	var oe oauthError
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&tr).
		SetError(&oe).
		Post(c.cfg.Endpoints.TokenURL)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, newAPIError(op, resp.StatusCode(), oe.Error, oe.Description)
	}
	if tr.AccessToken == "" {
		return nil, newAPIError(op, resp.StatusCode(), "invalid_response", "missing access_token")
	}
	return &tr, nil
}

// Revoke invalida el token en Google (refresh o access).
func (c *Client) Revoke(ctx context.Context, token string) error {
	defer metrics.ObserveProvider("revoke")()
	var oe oauthError
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"token": token}).
		SetError(&oe).
		Post(c.cfg.Endpoints.RevokeURL)
	if err != nil {
		return &APIError{Op: "revoke", Err: err}
	}
	if resp.IsError() {
		return newAPIError("revoke", resp.StatusCode(), oe.Error, oe.Description)
	}
	return nil
}

// AccountEmail devuelve el email de la cuenta dueña del access token.
func (c *Client) AccountEmail(ctx context.Context, accessToken string) (string, error) {
	defer metrics.ObserveProvider("userinfo")()
	var out struct {
		Email string `json:"email"`
	}
	var ae apiErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		SetError(&ae).
		Get(c.cfg.Endpoints.UserInfoURL)
	if err != nil {
		return "", &APIError{Op: "userinfo", Err: err}
	}
	if resp.IsError() {
		return "", newAPIError("userinfo", resp.StatusCode(), ae.Error.Status, ae.Error.Message)
	}
	if out.Email == "" {
		return "", newAPIError("userinfo", resp.StatusCode(), "invalid_response", "missing email")
	}
	return out.Email, nil
}

// SendRaw envía un mensaje RFC-5322 ya codificado en base64url y devuelve su id.
func (c *Client) SendRaw(ctx context.Context, accessToken, raw string) (string, error) {
	defer metrics.ObserveProvider("send")()
	var out struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	}
	var ae apiErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"raw": raw}).
		SetResult(&out).
		SetError(&ae).
		Post(c.cfg.Endpoints.GmailURL + "/users/me/messages/send")
	if err != nil {
		return "", &APIError{Op: "send", Err: err}
	}
	if resp.IsError() {
		return "", newAPIError("send", resp.StatusCode(), ae.Error.Status, ae.Error.Message)
	}
	return out.ID, nil
}
