// Package codec converts values to and from the bytes a store keeps.
//
// Binary is the native binjson format and the store default. JSON, CBOR,
// Msgpack and Protobuf carry the same Value model in other encodings, for
// interop with consumers that cannot read binjson. Typed bridges Go structs
// onto the binjson format, and Limit guards Decode against oversized input.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
