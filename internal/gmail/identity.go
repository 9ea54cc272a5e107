package gmail

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

// Identity es la conexión Gmail de un usuario (users/<userId>/gmail).
// Tiempos en epoch milisegundos; ExpiresAt 0 = sin vencimiento conocido.
type Identity struct {
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
	ConnectedAt  int64  `json:"connectedAt"`
}

// Status es la vista pública de la conexión.
type Status struct {
	Connected   bool   `json:"connected"`
	Email       string `json:"email,omitempty"`
	ConnectedAt int64  `json:"connectedAt,omitempty"`
}

func identityPath(userID string) (string, error) {
	p, err := kv.Join("users", userID, "gmail")
	if err != nil {
		return "", fmt.Errorf("%w: userId", ErrInvalidInput)
	}
	return p, nil
}

func (m *Manager) loadIdentity(ctx context.Context, path string) (*Identity, error) {
	var id Identity
	if err := kv.GetJSON(ctx, m.store, path, &id); err != nil {
		if kv.IsNotFound(err) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return &id, nil
}
