package kv

import (
	"encoding/json"
	"fmt"
)

// Merge aplica fields (shallow) sobre el objeto JSON existente. existing vacío
// equivale a {}. Un field con valor nil borra la clave.
func Merge(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &obj); err != nil {
			return nil, fmt.Errorf("kv: merge into non-object: %w", err)
		}
		if obj == nil {
			obj = map[string]any{}
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(obj, k)
			continue
		}
		obj[k] = v
	}
	return json.Marshal(obj)
}

// Encode serializa v; json.RawMessage y []byte válidos pasan tal cual.
func Encode(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case json.RawMessage:
		if !json.Valid(t) {
			return nil, fmt.Errorf("kv: invalid json")
		}
		return t, nil
	case []byte:
		if !json.Valid(t) {
			return nil, fmt.Errorf("kv: invalid json")
		}
		return json.RawMessage(t), nil
	}
	return json.Marshal(v)
}
