// Package kv define el almacenamiento jerárquico clave-valor que usan los servicios.
//
// Los paths son strings separados por "/" (ej: "users/u1/templates/t1"). Cada path guarda
// un documento JSON; los hijos directos de un path se pueden listar ordenados por un campo.
// Las operaciones son atómicas a nivel de un único path; no hay transacciones multi-path.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound indica que no hay documento en el path.
	ErrNotFound = errors.New("kv: not found")
	// ErrInvalidPath indica un path vacío o con segmentos reservados.
	ErrInvalidPath = errors.New("kv: invalid path")
)

// Entry es un hijo devuelto por RangeByChild.
type Entry struct {
	Key   string          // último segmento del path
	Value json.RawMessage // documento JSON
}

// Store es el contrato que implementan los adapters (memory, redis, postgres).
type Store interface {
	// Get devuelve el documento en path o ErrNotFound.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set reemplaza el documento en path (v se serializa a JSON).
	Set(ctx context.Context, path string, v any) error
	// Update mergea fields en el objeto de path (lo crea si no existe).
	Update(ctx context.Context, path string, fields map[string]any) error
	// Remove borra path y todos sus descendientes. No falla si no existe.
	Remove(ctx context.Context, path string) error
	// Push agrega v bajo un id generado y ordenado por tiempo; devuelve el id.
	Push(ctx context.Context, path string, v any) (string, error)
	// RangeByChild lista los hijos directos de path ordenados ascendente por el
	// campo child. limitLast > 0 devuelve solo los últimos limitLast.
	RangeByChild(ctx context.Context, path, child string, limitLast int) ([]Entry, error)
	// Ping verifica conectividad con el backend.
	Ping(ctx context.Context) error
	// Close libera recursos.
	Close() error
}

// GetJSON es un helper que hace Get y decodifica en out.
func GetJSON(ctx context.Context, s Store, path string, out any) error {
	raw, err := s.Get(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// IsNotFound reporta si err es (o envuelve) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Decode decodifica un documento devuelto por el store.
func Decode(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}
