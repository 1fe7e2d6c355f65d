package persist

import (
	"bytes"
)

// Marshal encodes v into a byte slice.
func Marshal(codec Codec, v any) ([]byte, error) {
	var buf bytes.Buffer

	err := codec.Encode(&buf, v)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes data into v, which must be a pointer.
func Unmarshal(codec Codec, data []byte, v any) error {
	return codec.Decode(bytes.NewReader(data), v)
}
