package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testState is a struct for round-trip codec testing.
type testState struct {
	Name   string         `json:"name"`
	Count  int            `json:"count"`
	Values map[string]int `json:"values"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()

	original := testState{
		Name:   "test",
		Count:  42,
		Values: map[string]int{"a": 1, "b": 2},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))
	assert.Equal(t, original, decoded)
	assert.Equal(t, JSONName, codec.Name())
}

func TestJSONCodec_Indent(t *testing.T) {
	t.Parallel()

	var compact, pretty bytes.Buffer

	state := testState{Name: "pretty", Count: 1}

	require.NoError(t, NewJSONCodec().Encode(&compact, state))
	require.NoError(t, (&JSONCodec{Indent: "  "}).Encode(&pretty, state))

	assert.LessOrEqual(t, strings.Count(compact.String(), "\n"), 1)
	assert.Contains(t, pretty.String(), "\n  ")
}

func TestJSONCodec_Errors(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()

	var decoded testState

	err := codec.Decode(strings.NewReader("not valid json{{{"), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json decode")

	var buf bytes.Buffer

	// Channels cannot be JSON-encoded.
	err = codec.Encode(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json encode")
}

func TestGobCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewGobCodec()

	original := testState{
		Name:   "gob-test",
		Count:  123,
		Values: map[string]int{"x": 10, "y": 20},
	}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, original))

	var decoded testState

	require.NoError(t, codec.Decode(&buf, &decoded))
	assert.Equal(t, original, decoded)
	assert.Equal(t, GobName, codec.Name())
}

func TestGobCodec_DecodeError(t *testing.T) {
	t.Parallel()

	var decoded testState

	err := NewGobCodec().Decode(strings.NewReader("not gob data"), &decoded)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gob decode")
}

func TestLZ4Codec_RoundTripCompresses(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewJSONCodec())

	original := testState{Name: strings.Repeat("line ", 500), Count: 7}

	var plain, compressed bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&plain, original))
	require.NoError(t, codec.Encode(&compressed, original))
	assert.Less(t, compressed.Len(), plain.Len())

	var decoded testState

	require.NoError(t, codec.Decode(&compressed, &decoded))
	assert.Equal(t, original, decoded)
	assert.Equal(t, "json+lz4", codec.Name())
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "gob", "json+lz4", "gob+lz4"} {
		codec, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, codec.Name())
	}

	_, err := Lookup("xml")
	require.ErrorIs(t, err, ErrUnknownCodec)

	_, err = Lookup("+lz4")
	require.ErrorIs(t, err, ErrUnknownCodec)
}
