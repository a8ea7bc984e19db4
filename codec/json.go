package codec

import "github.com/unkn0wn-root/binjson"

// JSON stores Values as compact JSON text with member order preserved.
// NaN and infinities fail to encode.
type JSON struct{}

var _ Codec[binjson.Value] = JSON{}

func (JSON) Encode(v binjson.Value) ([]byte, error) { return v.MarshalJSON() }
func (JSON) Decode(b []byte) (binjson.Value, error) { return binjson.ParseJSON(b) }
