package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []any{1, "two", false}, `[1,"two",false]`},
		{"struct tags", struct {
			B int    `json:"b"`
			A string `json:"a"`
		}{B: 1, A: "x"}, `{"a":"x","b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalNestedSortedKeys(t *testing.T) {
	obj := map[string]any{
		"z": map[string]any{"b": 1, "a": 2},
		"a": 3,
	}

	result, err := Canonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+E000 in UTF-16 but after it in UTF-8.
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := Canonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestCanonicalEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html is literal", "<b>a & b</b>", `"<b>a & b</b>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"short escapes", "a\nb\tc\rd", `"a\nb\tc\rd"`},
		{"other control", "\x01\x1f", `"\u0001\u001f"`},
		{"line separators are literal", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"cyrillic is literal", "Без категории", `"Без категории"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalNFCKeys(t *testing.T) {
	composed, err := Canonical(map[string]any{"caf\u00e9": 1})
	require.NoError(t, err)

	decomposed, err := Canonical(map[string]any{"cafe\u0301": 1})
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)
}

func TestCanonicalValuesKeptVerbatim(t *testing.T) {
	composed, err := Canonical("caf\u00e9")
	require.NoError(t, err)

	decomposed, err := Canonical("cafe\u0301")
	require.NoError(t, err)

	assert.Equal(t, "\"caf\u00e9\"", string(composed))
	assert.Equal(t, "\"cafe\u0301\"", string(decomposed))
	assert.NotEqual(t, composed, decomposed)
}

func TestCanonicalKeyCollision(t *testing.T) {
	_, err := Canonical(map[string]any{"caf\u00e9": 1, "cafe\u0301": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide")
}

func TestCanonicalRejectsFloats(t *testing.T) {
	_, err := Canonical(map[string]any{"ratio": 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}

func TestCanonicalCompactOutput(t *testing.T) {
	result, err := Canonical(map[string]any{
		"array": []any{1, 2},
		"bool":  true,
		"text":  "no-spaces",
	})
	require.NoError(t, err)

	assert.NotContains(t, string(result), " ")
	assert.NotContains(t, string(result), "\n")
}
