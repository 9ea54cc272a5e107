package kv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinRejectsReservedSegments(t *testing.T) {
	t.Parallel()
	p, err := Join("users", "u1", "templates", "t1")
	require.NoError(t, err)
	require.Equal(t, "users/u1/templates/t1", p)

	for _, bad := range []string{"", " ", "a/b", "a.b", "a#b", "a$b", "a[b", "a]b"} {
		_, err := Join("users", bad)
		require.ErrorIs(t, err, ErrInvalidPath, "segment %q", bad)
	}
}

func TestCleanAndSplit(t *testing.T) {
	t.Parallel()
	p, err := Clean("//otpCodes//a_at_b_com/")
	require.NoError(t, err)
	require.Equal(t, "otpCodes/a_at_b_com", p)

	parent, key := Split(p)
	require.Equal(t, "otpCodes", parent)
	require.Equal(t, "a_at_b_com", key)

	parent, key = Split("root")
	require.Equal(t, "", parent)
	require.Equal(t, "root", key)

	_, err = Clean("///")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestSortByChild(t *testing.T) {
	t.Parallel()
	entries := []Entry{
		{Key: "c", Value: json.RawMessage(`{"sentAt":300}`)},
		{Key: "a", Value: json.RawMessage(`{"sentAt":100}`)},
		{Key: "s", Value: json.RawMessage(`{"sentAt":"x"}`)},
		{Key: "n", Value: json.RawMessage(`{"other":1}`)},
		{Key: "b", Value: json.RawMessage(`{"sentAt":200}`)},
		{Key: "t", Value: json.RawMessage(`{"sentAt":true}`)},
	}
	got := SortByChild(entries, "sentAt", 0)
	keys := make([]string, len(got))
	for i, e := range got {
		keys[i] = e.Key
	}
	require.Equal(t, []string{"n", "t", "a", "b", "c", "s"}, keys)

	last := SortByChild(entries, "sentAt", 2)
	require.Len(t, last, 2)
	require.Equal(t, "c", last[0].Key)
	require.Equal(t, "s", last[1].Key)
}

func TestSortByChildTiesByKey(t *testing.T) {
	t.Parallel()
	got := SortByChild([]Entry{
		{Key: "b", Value: json.RawMessage(`{"v":1}`)},
		{Key: "a", Value: json.RawMessage(`{"v":1}`)},
	}, "v", 0)
	require.Equal(t, "a", got[0].Key)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	out, err := Merge(json.RawMessage(`{"a":1,"b":2}`), map[string]any{"b": 3, "c": "x", "a": nil})
	require.NoError(t, err)
	require.JSONEq(t, `{"b":3,"c":"x"}`, string(out))

	out, err = Merge(nil, map[string]any{"a": 1})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(out))

	_, err = Merge(json.RawMessage(`[1,2]`), map[string]any{"a": 1})
	require.Error(t, err)
}

func TestNewPushIDIsOrdered(t *testing.T) {
	t.Parallel()
	prev := ""
	for i := 0; i < 50; i++ {
		id, err := NewPushID()
		require.NoError(t, err)
		require.Greater(t, id, prev)
		prev = id
	}
}
