// Package binjson implements a compact, type-tagged binary encoding for
// JSON-shaped values with value-level dictionary compression.
//
// Wire format:
//
//	stream     = [dictionary] value
//	dictionary = 0x12 value* 0x00
//	value      = tag payload            (array elements)
//	member     = tag key payload        (object members; key is a String or DictionaryEntry)
//
// Every Object, Array and Dictionary is closed by an End tag. Integers use
// the narrowest of 8/16/32-bit, LEB128 varint or 64-bit width for their
// magnitude; the tag's parity carries the sign (odd positive, even
// negative). Fixed-width integers and doubles are little-endian. Strings
// are a varint byte length followed by UTF-8 bytes.
//
// Dictionary compression replaces values that occur more than once
// (non-empty strings, doubles, integers of magnitude 65536 or more, and
// containers with two or more children) by a DictionaryEntry tag and a
// varint position. Positions are assigned strings first, then by
// descending frequency, and entries are emitted and decoded strictly in
// position order.
//
// Decoding an Int64-tagged magnitude above 2^53 yields its decimal string,
// keeping the value exact for consumers limited to float64 numbers.
//
//	b, err := binjson.Encode(binjson.Object(
//	    binjson.Member{Key: "name", Value: binjson.String("ada")},
//	    binjson.Member{Key: "tags", Value: binjson.Array(binjson.String("x"), binjson.String("x"))},
//	))
//	v, err := binjson.Decode(b)
package binjson
