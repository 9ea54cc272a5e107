package kv

import "github.com/google/uuid"

// NewPushID genera un id UUIDv7: ordenable lexicográficamente por tiempo de creación.
func NewPushID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
