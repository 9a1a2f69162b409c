package encoding_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedene/narrowlink-cli/internal/encoding"
)

func TestEncodeComponent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		encoded string
	}{
		{"empty string", "", ""},
		{"plain word", "general", "general"},
		{"space", "mobile team", "mobile.20team"},
		{"literal dot", "v1.2", "v1.2E2"},
		{"percent", "100%", "100.25"},
		{"slash", "and/or", "and.2For"},
		{"parentheses", "(draft)", ".28draft.29"},
		{"unreserved marks", "it's!*~-_", "it's!*~-_"},
		{"plus", "a+b", "a.2Bb"},
		{"query delimiters", "#?&=", ".23.3F.26.3D"},
		{"non-ASCII", "café", "caf.C3.A9"},
		{"emoji", "🚀", ".F0.9F.9A.80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.encoded, encoding.EncodeComponent(tt.input))
		})
	}
}

func TestDecodeComponent(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		decoded string
	}{
		{"empty string", "", ""},
		{"plain word", "general", "general"},
		{"space", "mobile.20team", "mobile team"},
		{"lowercase hex", "caf.c3.a9", "café"},
		{"unescaped plus from old servers", "a+b", "a+b"},
		{"channel operand", "99-secret", "99-secret"},
		{"parentheses", ".28draft.29", "(draft)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encoding.DecodeComponent(tt.encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.decoded, got)
		})
	}
}

func TestDecodeComponent_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad hex", "abc.zz"},
		{"truncated escape", "abc."},
		{"single hex digit", "abc.2"},
		{"invalid UTF-8", ".FF"},
		{"lone continuation byte", "a.80b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encoding.DecodeComponent(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, encoding.ErrMalformed)

			var de *encoding.DecodingError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.input, de.Input)
			assert.Contains(t, err.Error(), tt.input)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"general",
		"mobile team",
		"and/or",
		"100%",
		"v1.2.3",
		"...",
		".2E",
		"(a) [b] {c}",
		"a+b=c&d",
		"  leading and trailing  ",
		"naïve café",
		"日本語のトピック",
		"🚀 launch",
		"tab\tand\nnewline",
		`back\slash "quotes"`,
		"already.20encoded",
		"%20",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			encoded := encoding.EncodeComponent(input)
			assert.NotContains(t, encoded, "/")
			assert.NotContains(t, encoded, "%")

			decoded, err := encoding.DecodeComponent(encoded)
			require.NoError(t, err)
			assert.Equal(t, input, decoded, "round-trip failed: %q -> %q -> %q", input, encoded, decoded)
		})
	}
}
