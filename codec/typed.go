package codec

import (
	"encoding/json"

	"github.com/unkn0wn-root/binjson"
)

var typedDefault = binjson.New(binjson.Options{DisableNumericCoercion: true})

// Typed stores any JSON-marshalable Go value in the binjson format. V goes
// through encoding/json on both sides, so struct tags apply.
//
// Numeric string coercion must stay off: a string field holding "42" would
// otherwise come back as a number and fail to unmarshal. The zero value
// uses such a codec. Integers above 2^53 that need 64-bit storage decode as
// strings and only fit string-typed fields.
type Typed[V any] struct {
	C *binjson.Codec
}

func (t Typed[V]) codec() *binjson.Codec {
	if t.C == nil {
		return typedDefault
	}
	return t.C
}

func (t Typed[V]) Encode(v V) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	val, err := binjson.ParseJSON(raw)
	if err != nil {
		return nil, err
	}
	return t.codec().Encode(val)
}

func (t Typed[V]) Decode(b []byte) (V, error) {
	var out V
	val, err := t.codec().Decode(b)
	if err != nil {
		return out, err
	}
	raw, err := val.MarshalJSON()
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
