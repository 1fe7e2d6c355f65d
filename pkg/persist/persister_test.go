package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persisterState is a struct for round-trip testing.
type persisterState struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		for _, encoding := range []string{JSONName, GobName} {
			codec, err := New(encoding, compress)
			require.NoError(t, err)

			data, err := Marshal(codec, &persisterState{Label: "hello", Value: 42})
			require.NoError(t, err)

			var restored persisterState

			require.NoError(t, Unmarshal(codec, data, &restored))
			assert.Equal(t, persisterState{Label: "hello", Value: 42}, restored, codec.Name())
		}
	}
}

func TestUnmarshal_DecodeError(t *testing.T) {
	t.Parallel()

	var restored persisterState

	require.Error(t, Unmarshal(NewJSONCodec(), []byte("{broken"), &restored))
}
