package kv

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// SortByChild ordena entries ascendente por el campo child de cada documento y
// recorta a los últimos limitLast (si > 0). Orden de tipos: ausente/null, false,
// true, números, strings, objetos/arrays. Empates se resuelven por Key.
func SortByChild(entries []Entry, child string, limitLast int) []Entry {
	keys := make([]childValue, len(entries))
	for i, e := range entries {
		keys[i] = extractChild(e.Value, child)
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if c := keys[idx[a]].compare(keys[idx[b]]); c != 0 {
			return c < 0
		}
		return entries[idx[a]].Key < entries[idx[b]].Key
	})

	out := make([]Entry, len(entries))
	for i, j := range idx {
		out[i] = entries[j]
	}
	if limitLast > 0 && len(out) > limitLast {
		out = out[len(out)-limitLast:]
	}
	return out
}

type childValue struct {
	rank int
	num  float64
	str  string
}

func (a childValue) compare(b childValue) int {
	if a.rank != b.rank {
		if a.rank < b.rank {
			return -1
		}
		return 1
	}
	switch a.rank {
	case 3:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	case 4:
		return strings.Compare(a.str, b.str)
	}
	return 0
}

func extractChild(doc json.RawMessage, child string) childValue {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return childValue{}
	}
	raw, ok := m[child]
	if !ok {
		return childValue{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return childValue{}
	}
	switch t := v.(type) {
	case nil:
		return childValue{}
	case bool:
		if t {
			return childValue{rank: 2}
		}
		return childValue{rank: 1}
	case json.Number:
		f, _ := t.Float64()
		return childValue{rank: 3, num: f}
	case string:
		return childValue{rank: 4, str: t}
	default:
		return childValue{rank: 5}
	}
}
