package codec

import "github.com/unkn0wn-root/binjson"

// Binary is the binjson wire format. The zero value uses the package
// defaults; set C to tune dictionary use, coercion or limits.
type Binary struct {
	C *binjson.Codec
}

var _ Codec[binjson.Value] = Binary{}

func (b Binary) Encode(v binjson.Value) ([]byte, error) {
	if b.C == nil {
		return binjson.Encode(v)
	}
	return b.C.Encode(v)
}

func (b Binary) Decode(p []byte) (binjson.Value, error) {
	if b.C == nil {
		return binjson.Decode(p)
	}
	return b.C.Decode(p)
}
