// Package codec contains the byte formats used to persist worlds: JSON for individual values and
// a length-prefixed envelope for grouping named buffers.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Decode unmarshals bz into a new T.
func Decode[T any](bz []byte) (T, error) {
	var value T
	if err := json.Unmarshal(bz, &value); err != nil {
		return value, eris.Wrapf(err, "failed to decode %T", value)
	}
	return value, nil
}

// Encode marshals value to JSON.
func Encode(value any) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %T", value)
	}
	return bz, nil
}
