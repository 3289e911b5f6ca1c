package forensic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	out, err := canonicalJSON(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestCanonicalJSONIsDeterministicAcrossCalls(t *testing.T) {
	value := map[string]any{"z": []any{1, 2, 3}, "a": "hello", "m": map[string]any{"k2": true, "k1": nil}}
	first, err := canonicalJSON(value)
	require.NoError(t, err)
	second, err := canonicalJSON(value)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, `{"a":"hello","m":{"k1":null,"k2":true},"z":[1,2,3]}`, string(first))
}
