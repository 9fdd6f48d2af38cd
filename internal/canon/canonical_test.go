package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{
		"b": 1,
		"a": "x",
		"c": []any{true, int64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,2]}`, string(got))
}

func TestMarshalNoHTMLEscape(t *testing.T) {
	got, err := Marshal("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalLineSeparatorsLiteral(t *testing.T) {
	got, err := Marshal("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	got, err = Marshal(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	got, err := Marshal("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalRejectsFloatAndNull(t *testing.T) {
	_, err := Marshal(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = Marshal([]any{nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// UTF-8 byte order would put U+FF61 first; UTF-16 puts the surrogate pair first.
	keys := SortedKeys(map[string]int{"\uff61": 1, "\U0001F600": 2, "a": 3})
	assert.Equal(t, []string{"a", "\U0001F600", "\uff61"}, keys)
}

func TestFingerprintStable(t *testing.T) {
	a, err := Fingerprint(DomainEngineConfig, map[string]any{"x": 1, "y": "z"})
	require.NoError(t, err)
	b, err := Fingerprint(DomainEngineConfig, map[string]any{"y": "z", "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Fingerprint(DomainReport, map[string]any{"x": 1, "y": "z"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
