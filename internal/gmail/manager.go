// Package gmail administra la conexión Gmail de cada usuario: alta por OAuth,
// refresh de access tokens, desconexión y envío de mails desde su cuenta.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellomail/internal/history"
	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
	"github.com/dropDatabas3/hellomail/internal/templates"
)

// RefreshSkew: un access token a menos de esto de vencer se refresca antes de usarse.
const RefreshSkew = 60 * time.Second

type Deps struct {
	Store     kv.Store
	Provider  Provider
	State     *StateCodec
	Templates *templates.Repository
	History   *history.Log
	Now       func() time.Time
}

type Manager struct {
	store     kv.Store
	provider  Provider
	state     *StateCodec
	templates *templates.Repository
	history   *history.Log
	now       func() time.Time

	// refreshes colapsa refresh concurrentes del mismo usuario
	refreshes singleflight.Group
}

func NewManager(d Deps) (*Manager, error) {
	if d.Store == nil || d.Provider == nil {
		return nil, fmt.Errorf("gmail: store and provider are required")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.State == nil {
		d.State = NewStateCodec("", d.Now)
	}
	if d.Templates == nil {
		d.Templates = templates.NewRepository(d.Store, d.Now)
	}
	if d.History == nil {
		d.History = history.NewLog(d.Store)
	}
	return &Manager{
		store:     d.Store,
		provider:  d.Provider,
		state:     d.State,
		templates: d.Templates,
		history:   d.History,
		now:       d.Now,
	}, nil
}

// AuthorizationURL devuelve la URL de consentimiento para userID.
func (m *Manager) AuthorizationURL(userID string) (string, error) {
	if _, err := identityPath(userID); err != nil {
		return "", err
	}
	state, err := m.state.Encode(userID)
	if err != nil {
		return "", fmt.Errorf("gmail: encode state: %w", err)
	}
	return m.provider.AuthURL(state), nil
}

// CallbackResult es lo que queda persistido tras un callback exitoso.
type CallbackResult struct {
	UserID string
	Email  string
}

// HandleCallback completa el flujo OAuth. providerErr es el query param "error"
// que manda Google cuando el usuario cancela o falla el consentimiento.
func (m *Manager) HandleCallback(ctx context.Context, code, state, providerErr string) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("gmail.HandleCallback"))

	if providerErr != "" {
		log.Warn("provider returned error", logger.String("provider_error", providerErr))
		return nil, fmt.Errorf("%w: %s", ErrProvider, providerErr)
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return nil, fmt.Errorf("%w: code and state are required", ErrInvalidInput)
	}
	userID, err := m.state.Decode(state)
	if err != nil {
		return nil, err
	}
	path, err := identityPath(userID)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UserID(userID))

	tr, err := m.provider.ExchangeCode(ctx, code)
	if err != nil {
		log.Error("code exchange failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if tr.RefreshTok == "" {
		log.Error("provider returned no refresh token")
		return nil, ErrMissingRefreshToken
	}
	email, err := m.provider.AccountEmail(ctx, tr.AccessToken)
	if err != nil {
		log.Error("account email lookup failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	now := m.now()
	id := Identity{
		Email:        email,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshTok,
		ConnectedAt:  now.UnixMilli(),
	}
	if tr.ExpiresIn > 0 {
		id.ExpiresAt = now.Add(time.Duration(tr.ExpiresIn) * time.Second).UnixMilli()
	}
	if err := m.store.Set(ctx, path, id); err != nil {
		return nil, fmt.Errorf("gmail: store identity: %w", err)
	}
	log.Info("gmail connected")
	return &CallbackResult{UserID: userID, Email: email}, nil
}

func (m *Manager) needsRefresh(id *Identity) bool {
	if id.ExpiresAt == 0 {
		return false
	}
	return m.now().UnixMilli() >= id.ExpiresAt-RefreshSkew.Milliseconds()
}

// GetValidToken devuelve la identidad con un access token utilizable, refrescándolo
// si vence dentro de RefreshSkew. Si el refresh falla la identidad guardada no se toca.
func (m *Manager) GetValidToken(ctx context.Context, userID string) (*Identity, error) {
	path, err := identityPath(userID)
	if err != nil {
		return nil, err
	}
	id, err := m.loadIdentity(ctx, path)
	if err != nil {
		return nil, err
	}
	if id.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	if !m.needsRefresh(id) {
		return id, nil
	}

	// El refresh no depende de la cancelación del primer llamador: los demás
	// esperan el mismo resultado.
	v, err, _ := m.refreshes.Do(userID, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx), userID, path)
	})
	if err != nil {
		return nil, err
	}
	out := *v.(*Identity)
	return &out, nil
}

func (m *Manager) refresh(ctx context.Context, userID, path string) (*Identity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("gmail.refresh"), logger.UserID(userID))

	// Releer: otro llamador pudo haber refrescado entre la carga y el singleflight.
	cur, err := m.loadIdentity(ctx, path)
	if err != nil {
		return nil, err
	}
	if cur.RefreshToken == "" {
		return nil, ErrMissingRefreshToken
	}
	if !m.needsRefresh(cur) {
		return cur, nil
	}

	tr, err := m.provider.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		metrics.RecordTokenRefresh("failed")
		log.Warn("token refresh failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	fields := map[string]any{"accessToken": tr.AccessToken}
	cur.AccessToken = tr.AccessToken
	if tr.ExpiresIn > 0 {
		cur.ExpiresAt = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UnixMilli()
		fields["expiresAt"] = cur.ExpiresAt
	}
	if tr.RefreshTok != "" {
		cur.RefreshToken = tr.RefreshTok
		fields["refreshToken"] = tr.RefreshTok
	}
	if err := m.store.Update(ctx, path, fields); err != nil {
		metrics.RecordTokenRefresh("failed")
		return nil, fmt.Errorf("gmail: persist refreshed token: %w", err)
	}
	metrics.RecordTokenRefresh("ok")
	log.Debug("access token refreshed", logger.ExpiresAt(time.UnixMilli(cur.ExpiresAt)))
	return cur, nil
}

// Disconnect revoca (best-effort) y borra la conexión. Sin conexión es no-op.
func (m *Manager) Disconnect(ctx context.Context, userID string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("gmail.Disconnect"), logger.UserID(userID))

	path, err := identityPath(userID)
	if err != nil {
		return err
	}
	id, err := m.loadIdentity(ctx, path)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	if err != nil {
		return err
	}

	token := id.RefreshToken
	if token == "" {
		token = id.AccessToken
	}
	if token != "" {
		if err := m.provider.Revoke(ctx, token); err != nil {
			log.Warn("token revocation failed, deleting anyway", logger.Err(err))
		}
	}
	if err := m.store.Remove(ctx, path); err != nil {
		return fmt.Errorf("gmail: delete identity: %w", err)
	}
	log.Info("gmail disconnected")
	return nil
}

// Status informa si el usuario tiene una conexión guardada.
func (m *Manager) Status(ctx context.Context, userID string) (*Status, error) {
	path, err := identityPath(userID)
	if err != nil {
		return nil, err
	}
	id, err := m.loadIdentity(ctx, path)
	if errors.Is(err, ErrNotConnected) {
		return &Status{Connected: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Status{Connected: true, Email: id.Email, ConnectedAt: id.ConnectedAt}, nil
}
