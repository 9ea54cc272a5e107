package kv

import (
	"fmt"
	"strings"
)

// reservedChars no pueden aparecer dentro de un segmento.
const reservedChars = ".#$[]/"

// ValidSegment reporta si s sirve como segmento de path.
func ValidSegment(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return !strings.ContainsAny(s, reservedChars)
}

// Join arma un path validando cada segmento.
func Join(segments ...string) (string, error) {
	for _, s := range segments {
		if !ValidSegment(s) {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidPath, s)
		}
	}
	return strings.Join(segments, "/"), nil
}

// Clean normaliza barras sobrantes y rechaza paths vacíos.
func Clean(path string) (string, error) {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	return strings.Join(out, "/"), nil
}

// Split separa un path limpio en padre y último segmento. El padre de la raíz es "".
func Split(path string) (parent, key string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
