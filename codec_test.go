package binjson

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

var direct = New(Options{DisableDictionary: true})

func mustEncode(t *testing.T, c *Codec, v Value) []byte {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode(%v): %v", v, err)
	}
	return b
}

func mustDecode(t *testing.T, c *Codec, b []byte) Value {
	t.Helper()
	v, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode(%x): %v", b, err)
	}
	return v
}

func sample() Value {
	return Object(
		Member{Key: "id", Value: Int(42)},
		Member{Key: "name", Value: String("Ada Lovelace")},
		Member{Key: "ok", Value: Bool(true)},
		Member{Key: "none", Value: Null()},
		Member{Key: "score", Value: Float(-12.75)},
		Member{Key: "big", Value: Uint(5000000000)},
		Member{Key: "neg", Value: Int(-70000)},
		Member{Key: "tags", Value: Array(String("x"), String("y"), String("x"))},
		Member{Key: "nested", Value: Object(
			Member{Key: "empty", Value: Array()},
			Member{Key: "obj", Value: Object()},
			Member{Key: "str", Value: String("")},
		)},
	)
}

func TestRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(0),
		Int(254),
		Int(255),
		Int(-65534),
		Int(math.MaxInt32),
		Int(math.MinInt32),
		Uint(1 << 53),
		Float(0.1),
		Float(-1e300),
		Float(math.Inf(1)),
		String(""),
		String("héllo wörld"),
		Array(),
		Object(),
		Array(Int(1), Array(Int(2), Array(Int(3)))),
		sample(),
	}
	for _, c := range []*Codec{defaultCodec, direct} {
		for _, v := range cases {
			got := mustDecode(t, c, mustEncode(t, c, v))
			if !got.Equal(v) {
				t.Fatalf("round trip mismatch: got %v want %v", got, v)
			}
		}
	}
}

func TestRoundTripPreservesMemberOrder(t *testing.T) {
	v := Object(
		Member{Key: "z", Value: Int(1)},
		Member{Key: "a", Value: Int(2)},
		Member{Key: "m", Value: Int(3)},
	)
	got := mustDecode(t, defaultCodec, mustEncode(t, defaultCodec, v))
	var keys []string
	for _, m := range got.Members() {
		keys = append(keys, m.Key)
	}
	if strings.Join(keys, ",") != "z,a,m" {
		t.Fatalf("member order not preserved: %v", keys)
	}
}

func TestNarrowestWidth(t *testing.T) {
	cases := []struct {
		v    Value
		want []byte
	}{
		{Int(200), []byte{0x09, 200}},
		{Int(-200), []byte{0x0A, 200}},
		{Int(254), []byte{0x09, 254}},
		{Int(255), []byte{0x0B, 0xFF, 0x00}},
		{Int(60000), []byte{0x0B, 0x60, 0xEA}},
		{Int(65535), []byte{0x0D, 0xFF, 0xFF, 0x00, 0x00}},
		{Int(4294967290), []byte{0x0D, 0xFA, 0xFF, 0xFF, 0xFF}},
		{Int(4294967295), []byte{0x07, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{Int(5000000000), []byte{0x07, 0x80, 0xE4, 0x97, 0xD0, 0x12}},
		{Int(-5000000000), []byte{0x08, 0x80, 0xE4, 0x97, 0xD0, 0x12}},
		{Uint(1 << 49), []byte{0x0F, 0, 0, 0, 0, 0, 0, 0x02, 0}},
		{Float(1.5), []byte{0x11, 0, 0, 0, 0, 0, 0, 0xF8, 0x3F}},
	}
	for _, tc := range cases {
		got := mustEncode(t, direct, tc.v)
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("Encode(%v) = %x want %x", tc.v, got, tc.want)
		}
	}
}

func TestScalarEncodingIsContextFree(t *testing.T) {
	scalar := mustEncode(t, direct, Int(300))
	inArray := mustEncode(t, direct, Array(Int(300)))
	if !bytes.Equal(inArray[1:len(inArray)-1], scalar) {
		t.Fatalf("scalar %x differs inside array %x", scalar, inArray)
	}
	if again := mustEncode(t, direct, Int(300)); !bytes.Equal(again, scalar) {
		t.Fatalf("repeat encoding differs: %x vs %x", again, scalar)
	}
}

func TestNegativeZeroIsNotNegative(t *testing.T) {
	want := []byte{0x09, 0x00}
	for _, v := range []Value{Int(0), Float(0), Float(math.Copysign(0, -1)), Integer(true, 0)} {
		if got := mustEncode(t, direct, v); !bytes.Equal(got, want) {
			t.Fatalf("Encode(%v) = %x want %x", v, got, want)
		}
	}
}

func TestInt64MagnitudeAboveExactLimitDecodesAsString(t *testing.T) {
	cases := []struct {
		v    Value
		want Value
	}{
		{Uint(1 << 53), Uint(1 << 53)},
		{Uint(1<<53 + 1), String("9007199254740993")},
		{Integer(true, 1<<53+1), String("-9007199254740993")},
		{Uint(math.MaxUint64), String("18446744073709551615")},
		{Integer(true, math.MaxUint64), String("-18446744073709551615")},
	}
	for _, tc := range cases {
		got := mustDecode(t, defaultCodec, mustEncode(t, defaultCodec, tc.v))
		if !got.Equal(tc.want) {
			t.Fatalf("decode(encode(%v)) = %v want %v", tc.v, got, tc.want)
		}
	}
}

func TestNumericStringCoercion(t *testing.T) {
	cases := []struct {
		in   Value
		want Value
	}{
		{String("42"), Int(42)},
		{String("-7"), Int(-7)},
		{String("007"), Int(7)},
		{String("-0"), Int(0)},
		{String("12345678901234567890"), String("12345678901234567890")},
		{String("99999999999999999999999"), String("99999999999999999999999")},
		{String("4.2"), String("4.2")},
		{String("-"), String("-")},
		{String("1e3"), String("1e3")},
		{Object(Member{Key: "10", Value: String("10")}), Object(Member{Key: "10", Value: Int(10)})},
	}
	for _, tc := range cases {
		got := mustDecode(t, defaultCodec, mustEncode(t, defaultCodec, tc.in))
		if !got.Equal(tc.want) {
			t.Fatalf("decode(encode(%v)) = %v want %v", tc.in, got, tc.want)
		}
	}

	plain := New(Options{DisableNumericCoercion: true})
	got := mustDecode(t, plain, mustEncode(t, plain, String("42")))
	if s, ok := got.AsString(); !ok || s != "42" {
		t.Fatalf("coercion disabled: got %v", got)
	}
}

func TestEncodeNaN(t *testing.T) {
	v := Object(Member{Key: "vals", Value: Array(Int(1), Float(math.NaN()))})
	for _, c := range []*Codec{defaultCodec, direct} {
		_, err := c.Encode(v)
		if !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("expected ErrInvalidNumber, got %v", err)
		}
		var ee *EncodeError
		if !errors.As(err, &ee) || ee.Path != "$.vals[1]" {
			t.Fatalf("expected path $.vals[1], got %v", err)
		}
	}
}

func TestDecodeDuplicateKeyLastWins(t *testing.T) {
	stream := []byte{
		0x01,                        // Object
		0x09, 0x03, 0x01, 'a', 0x01, // a: 1
		0x09, 0x03, 0x01, 'b', 0x05, // b: 5
		0x09, 0x03, 0x01, 'a', 0x02, // a: 2
		0x00,
	}
	got := mustDecode(t, defaultCodec, stream)
	if got.Len() != 2 {
		t.Fatalf("expected 2 members, got %v", got)
	}
	a, _ := got.Get("a")
	if !a.Equal(Int(2)) {
		t.Fatalf("expected last write to win, a=%v", a)
	}
	if got.Members()[0].Key != "a" {
		t.Fatalf("duplicate key should keep first position: %v", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncatedStream},
		{"unknown tag", []byte{0xFF}, ErrUnknownTag},
		{"unknown tag in array", []byte{0x02, 0x14, 0x00}, ErrUnknownTag},
		{"object then EOF", []byte{0x01}, ErrUnterminatedContainer},
		{"array missing End", []byte{0x02, 0x06, 0x06}, ErrUnterminatedContainer},
		{"dictionary missing End", []byte{0x12, 0x03, 0x01, 'a'}, ErrUnterminatedContainer},
		{"short int16", []byte{0x0B, 0x01}, ErrTruncatedStream},
		{"short double", []byte{0x11, 0, 0, 0}, ErrTruncatedStream},
		{"short string", []byte{0x03, 0x05, 'a', 'b'}, ErrTruncatedStream},
		{"member key missing", []byte{0x01, 0x06}, ErrTruncatedStream},
		{"reference without dictionary", []byte{0x13, 0x00}, ErrDictionaryEntryWithoutDictionary},
		{"reference out of range", []byte{0x12, 0x03, 0x01, 'a', 0x00, 0x13, 0x01}, ErrDictionaryIndex},
		{"reference to later entry", []byte{0x12, 0x13, 0x01, 0x03, 0x01, 'a', 0x00, 0x06}, ErrDictionaryIndex},
		{"trailing bytes", []byte{0x06, 0x06}, ErrTrailingBytes},
		{"bare End", []byte{0x00}, ErrUnexpectedEnd},
		{"dictionary only", []byte{0x12, 0x03, 0x01, 'a', 0x00}, ErrTruncatedStream},
		{"non-string key", []byte{0x01, 0x06, 0x09, 0x01, 0x00}, ErrInvalidKey},
		{"End as key", []byte{0x01, 0x06, 0x00, 0x00}, ErrUnexpectedEnd},
		{"null as key", []byte{0x01, 0x06, 0x06, 0x06, 0x00}, ErrInvalidKey},
		{"array as key", []byte{0x01, 0x02, 0x02, 0x00, 0x06, 0x00}, ErrInvalidKey},
		{"object as key", []byte{0x01, 0x06, 0x01, 0x00, 0x06, 0x00}, ErrInvalidKey},
		{"unknown tag as key", []byte{0x01, 0x06, 0xFF}, ErrUnknownTag},
		{"truncated string key", []byte{0x01, 0x06, 0x03, 0x05, 'a'}, ErrTruncatedStream},
		{"reference to non-string key", []byte{0x12, 0x09, 0x01, 0x09, 0x01, 0x00, 0x01, 0x06, 0x13, 0x00, 0x06, 0x00}, ErrInvalidKey},
		{"nested objects as keys", bytes.Repeat([]byte{0x01}, 2000), ErrInvalidKey},
		{"varint overflow", []byte{0x07, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, ErrNumericOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := defaultCodec.Decode(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrMalformedStream) {
				t.Fatalf("expected ErrMalformedStream, got %v", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	_, err := defaultCodec.Decode([]byte{0x02, 0x06, 0x06, 0xEE, 0x00})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if de.Offset != 3 || de.Tag != Tag(0xEE) {
		t.Fatalf("unexpected offset/tag: %+v", de)
	}
}

func TestDecodeNonCanonicalWidthAccepted(t *testing.T) {
	// 7 written with a 32-bit width still decodes
	got := mustDecode(t, defaultCodec, []byte{0x0E, 0x07, 0x00, 0x00, 0x00})
	if !got.Equal(Int(-7)) {
		t.Fatalf("got %v", got)
	}
}

func TestNestedDictionaryTagDecodesAsArray(t *testing.T) {
	got := mustDecode(t, defaultCodec, []byte{0x02, 0x12, 0x09, 0x01, 0x00, 0x00})
	want := Array(Array(Int(1)))
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func deepArray(n int) Value {
	v := Int(1)
	for i := 0; i < n; i++ {
		v = Array(v)
	}
	return v
}

func TestMaxDepth(t *testing.T) {
	c := New(Options{MaxDepth: 4})
	if _, err := c.Encode(deepArray(4)); err != nil {
		t.Fatalf("depth 4 should encode: %v", err)
	}
	for _, cc := range []*Codec{c, New(Options{MaxDepth: 4, DisableDictionary: true})} {
		if _, err := cc.Encode(deepArray(5)); !errors.Is(err, ErrTooDeep) {
			t.Fatalf("expected ErrTooDeep, got %v", err)
		}
	}

	stream := mustEncode(t, New(Options{MaxDepth: -1}), deepArray(5))
	if _, err := c.Decode(stream); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep on decode, got %v", err)
	}
	if _, err := New(Options{MaxDepth: -1}).Decode(stream); err != nil {
		t.Fatalf("unlimited depth decode: %v", err)
	}
}

func TestKeysDoNotBypassMaxDepth(t *testing.T) {
	for _, c := range []*Codec{New(Options{MaxDepth: 8}), New(Options{MaxDepth: -1})} {
		_, err := c.Decode(bytes.Repeat([]byte{byte(TagObject)}, 1<<20))
		if !errors.Is(err, ErrMalformedStream) || !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey, got %v", err)
		}
	}
	// objects nested through values still hit the depth limit
	stream := append([]byte{byte(TagObject)}, bytes.Repeat([]byte{byte(TagObject), byte(TagString), 0x01, 'k'}, 20)...)
	if _, err := New(Options{MaxDepth: 8}).Decode(stream); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestMaxDecode(t *testing.T) {
	c := New(Options{MaxDecode: 4})
	_, err := c.Decode([]byte{0x03, 0x04, 'a', 'b', 'c', 'd'})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	var de *DecodeError
	if errors.As(err, &de) || errors.Is(err, ErrMalformedStream) {
		t.Fatalf("size guard should not report a malformed stream: %v", err)
	}
	if _, err := c.Decode([]byte{0x09, 0x01}); err != nil {
		t.Fatalf("small payload: %v", err)
	}
}

func TestSmallInitialBufferGrows(t *testing.T) {
	c := New(Options{InitialBufferSize: 1})
	v := String(strings.Repeat("long ", 200))
	got := mustDecode(t, c, mustEncode(t, c, v))
	if !got.Equal(v) {
		t.Fatalf("round trip with growth failed")
	}
}

type recLogger struct {
	NopLogger
	debug []string
}

func (l *recLogger) Debug(msg string, _ Fields) { l.debug = append(l.debug, msg) }

func TestLoggerReceivesDictionaryStats(t *testing.T) {
	l := &recLogger{}
	c := New(Options{Logger: l})
	mustEncode(t, c, Array(String("dup"), String("dup")))
	if _, err := c.Decode([]byte{0xFF}); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(l.debug) != 2 {
		t.Fatalf("expected 2 debug logs, got %v", l.debug)
	}
}
