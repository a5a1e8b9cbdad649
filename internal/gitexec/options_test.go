package gitexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "long flag",
			opts: Options{"porcelain": true},
			want: []string{"--porcelain"},
		},
		{
			name: "long value single token",
			opts: Options{"format": "%H"},
			want: []string{"--format=%H"},
		},
		{
			name: "short flag",
			opts: Options{"r": true},
			want: []string{"-r"},
		},
		{
			name: "short value two tokens",
			opts: Options{"n": 5},
			want: []string{"-n", "5"},
		},
		{
			name: "false emits nothing",
			opts: Options{"porcelain": false},
			want: nil,
		},
		{
			name: "nil emits nothing",
			opts: Options{"porcelain": nil},
			want: nil,
		},
		{
			name: "sequence repeats",
			opts: Options{"exclude": []string{"a", "b"}},
			want: []string{"--exclude=a", "--exclude=b"},
		},
		{
			name: "short sequence repeats",
			opts: Options{"x": []any{"a", "b"}},
			want: []string{"-x", "a", "-x", "b"},
		},
		{
			name: "controls stripped",
			opts: Options{"$spawn": true, "porcelain": true},
			want: []string{"--porcelain"},
		},
		{
			name: "sorted key order",
			opts: Options{"zeta": true, "alpha": true},
			want: []string{"--alpha", "--zeta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.opts))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []Options{
		{"porcelain": true},
		{"format": "%H"},
		{"r": true, "t": true},
		{"n": "5"},
		{"exclude": []string{"a", "b"}},
		{"verify": true, "abbrev": "8"},
	}

	for _, opts := range tests {
		decoded, err := Decode(Encode(opts))
		require.NoError(t, err)
		assert.Equal(t, opts, decoded)
	}
}

func TestDecodeRejectsPositionals(t *testing.T) {
	_, err := Decode([]string{"HEAD"})
	assert.ErrorIs(t, err, ErrBadArgument)
}
