package binjson

import "fmt"

// Tag is the leading byte of every encoded value.
//
// For each integer width the positive tag is odd and the negative tag is the
// next even value, so the sign of a decoded magnitude is the tag's parity.
type Tag uint8

const (
	TagEnd              Tag = 0x00 // closes an Object, Array or Dictionary
	TagObject           Tag = 0x01 // named values until TagEnd
	TagArray            Tag = 0x02 // values until TagEnd
	TagString           Tag = 0x03 // varint length + UTF-8 bytes
	TagBooleanFalse     Tag = 0x04
	TagBooleanTrue      Tag = 0x05
	TagNull             Tag = 0x06
	TagPositiveVarInt64 Tag = 0x07
	TagNegativeVarInt64 Tag = 0x08
	TagPositiveInt8     Tag = 0x09
	TagNegativeInt8     Tag = 0x0A
	TagPositiveInt16    Tag = 0x0B
	TagNegativeInt16    Tag = 0x0C
	TagPositiveInt32    Tag = 0x0D
	TagNegativeInt32    Tag = 0x0E
	TagPositiveInt64    Tag = 0x0F
	TagNegativeInt64    Tag = 0x10
	TagDouble           Tag = 0x11 // IEEE-754 float64, little-endian
	TagDictionary       Tag = 0x12 // same layout as TagArray; only valid at offset 0
	TagDictionaryEntry  Tag = 0x13 // varint index into the dictionary

	tagMax = TagDictionaryEntry
)

var tagNames = [...]string{
	TagEnd:              "End",
	TagObject:           "Object",
	TagArray:            "Array",
	TagString:           "String",
	TagBooleanFalse:     "BooleanFalse",
	TagBooleanTrue:      "BooleanTrue",
	TagNull:             "Null",
	TagPositiveVarInt64: "PositiveVarInt64",
	TagNegativeVarInt64: "NegativeVarInt64",
	TagPositiveInt8:     "PositiveInt8",
	TagNegativeInt8:     "NegativeInt8",
	TagPositiveInt16:    "PositiveInt16",
	TagNegativeInt16:    "NegativeInt16",
	TagPositiveInt32:    "PositiveInt32",
	TagNegativeInt32:    "NegativeInt32",
	TagPositiveInt64:    "PositiveInt64",
	TagNegativeInt64:    "NegativeInt64",
	TagDouble:           "Double",
	TagDictionary:       "Dictionary",
	TagDictionaryEntry:  "DictionaryEntry",
}

func (t Tag) String() string {
	if t.Valid() {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(0x%02X)", uint8(t))
}

// Valid reports whether t is in the catalog.
func (t Tag) Valid() bool { return t <= tagMax }

// IsInteger reports whether t is one of the signed integer tags.
func (t Tag) IsInteger() bool {
	return t >= TagPositiveVarInt64 && t <= TagNegativeInt64
}

// Negative reports whether an integer tag carries a negative magnitude.
func (t Tag) Negative() bool { return t.IsInteger() && t%2 == 0 }

// negate turns a positive integer tag into its negative twin.
func (t Tag) negate() Tag { return t + 1 }
