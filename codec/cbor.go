package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/unkn0wn-root/binjson"
)

// CBOR is a Codec that serializes Values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when you need byte-for-byte stable outputs, e.g. for hashing. Object member
// order is not preserved in either mode.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[binjson.Value] = CBOR{}

// NewCBOR constructs a CBOR codec.
//   - deterministic: CoreDetEncOptions (sorted map keys, shortest floats).
//   - otherwise: PreferredUnsortedEncOptions.
//
// Maps always decode with string keys.
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Encode(v binjson.Value) ([]byte, error) {
	return c.enc.Marshal(v.Interface())
}

func (c CBOR) Decode(b []byte) (binjson.Value, error) {
	var x any
	if err := c.dec.Unmarshal(b, &x); err != nil {
		return binjson.Value{}, err
	}
	return binjson.FromAny(x)
}
