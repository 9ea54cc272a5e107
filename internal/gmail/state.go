package gmail

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

const stateTTL = 10 * time.Minute

// StateCodec arma y valida el parámetro state del flujo OAuth.
// Sin secret el state es el userId crudo; con secret es un JWT HS256.
type StateCodec struct {
	secret []byte
	now    func() time.Time
}

func NewStateCodec(secret string, now func() time.Time) *StateCodec {
	if now == nil {
		now = time.Now
	}
	return &StateCodec{secret: []byte(secret), now: now}
}

func (c *StateCodec) Encode(userID string) (string, error) {
	if len(c.secret) == 0 {
		return userID, nil
	}
	now := c.now()
	claims := jwtv5.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(stateTTL)),
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode devuelve el userId que viaja en state.
func (c *StateCodec) Decode(state string) (string, error) {
	if len(c.secret) == 0 {
		if !kv.ValidSegment(state) {
			return "", ErrInvalidState
		}
		return state, nil
	}
	var claims jwtv5.RegisteredClaims
	tok, err := jwtv5.ParseWithClaims(state, &claims,
		func(*jwtv5.Token) (any, error) { return c.secret, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(c.now),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !kv.ValidSegment(claims.Subject) {
		return "", ErrInvalidState
	}
	return claims.Subject, nil
}
