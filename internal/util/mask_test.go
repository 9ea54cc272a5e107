package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"Ana.Perez@Gmail.com": "a…@g….com",
		"a@x.com":             "a@x.com",
		"":                    "",
		"abc":                 "***",
		"nodomain":            "n…n",
		"weird@at@corp.io":    "w…@c….io",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), in)
	}
}
