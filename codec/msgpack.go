package codec

import (
	"bytes"

	"github.com/unkn0wn-root/binjson"
	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack is a Codec that serializes Values using vmihailenco/msgpack/v5.
// The zero value is ready to use. Map keys are written sorted and integers
// in their smallest msgpack form, so equal Values encode to equal bytes.
type Msgpack struct{}

var _ Codec[binjson.Value] = Msgpack{}

func (Msgpack) Encode(v binjson.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v.Interface()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack) Decode(b []byte) (binjson.Value, error) {
	var x any
	if err := msgpack.Unmarshal(b, &x); err != nil {
		return binjson.Value{}, err
	}
	return binjson.FromAny(x)
}
