package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

func mustDecodeValue(t *testing.T, b []byte) Entry {
	t.Helper()
	e, err := DecodeValue(b)
	if err != nil {
		t.Fatalf("DecodeValue error: %v", err)
	}
	return e
}

func mustDecodeBatch(t *testing.T, b []byte) []BatchItem {
	t.Helper()
	it, err := DecodeBatch(b)
	if err != nil {
		t.Fatalf("DecodeBatch error: %v", err)
	}
	return it
}

func TestValueRoundTrip(t *testing.T) {
	cases := []Entry{
		{Version: 0, Payload: nil},
		{Version: 42, Payload: []byte("hello")},
		{Version: math.MaxUint64, Flags: FlagZstd, Payload: []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		got := mustDecodeValue(t, EncodeValue(tc))
		if got.Version != tc.Version || got.Flags != tc.Flags {
			t.Fatalf("header mismatch: got %+v want %+v", got, tc)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestValueLayout(t *testing.T) {
	enc := EncodeValue(Entry{Version: 3, Flags: FlagZstd, Payload: []byte{0xAB}})
	want := []byte{
		'B', 'J', 'S', 'N', version, kindValue, FlagZstd,
		0, 0, 0, 0, 0, 0, 0, 3,
		0, 0, 0, 1,
		0xAB,
	}
	if !bytes.Equal(enc, want) {
		t.Fatalf("layout mismatch:\n got %x\nwant %x", enc, want)
	}
}

func TestValueRejectsTrailingBytes(t *testing.T) {
	enc := EncodeValue(Entry{Version: 7, Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := DecodeValue(enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestValueCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeValue(Entry{Version: 1, Payload: []byte("abc")})
	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), enc...)
		f(b)
		return b
	}

	cases := map[string][]byte{
		"bad magic":     mutate(func(b []byte) { b[0] = 'X' }),
		"bad version":   mutate(func(b []byte) { b[4] = version + 1 }),
		"wrong kind":    mutate(func(b []byte) { b[5] = kindBatch }),
		"unknown flags": mutate(func(b []byte) { b[6] = 0x80 }),
		// vlen sits after magic, ver, kind, flags and version
		"vlen too long": mutate(func(b []byte) { binary.BigEndian.PutUint32(b[15:19], 4) }),
		"truncated":     enc[:len(enc)-1],
		"header only":   enc[:10],
	}
	for name, b := range cases {
		if _, err := DecodeValue(b); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestValueZeroCopyPayload(t *testing.T) {
	enc := EncodeValue(Entry{Version: 1, Payload: []byte("Z")})
	e := mustDecodeValue(t, enc)
	e.Payload[0] = 'Q'
	if mustDecodeValue(t, enc).Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}

func TestBatchRoundTrip(t *testing.T) {
	cases := [][]BatchItem{
		nil,
		{{Key: "a", Entry: Entry{Version: 1, Payload: []byte("x")}}},
		{
			{Key: "a", Entry: Entry{Version: 1, Payload: []byte("x")}},
			{Key: "b", Entry: Entry{Version: 2}},
			{Key: "c", Entry: Entry{Version: 3, Flags: FlagZstd, Payload: []byte{9, 8, 7}}},
		},
		// duplicates allowed. decoder preserves both
		{
			{Key: "dup", Entry: Entry{Version: 1, Payload: []byte("old")}},
			{Key: "dup", Entry: Entry{Version: 2, Payload: []byte("new")}},
		},
	}
	for _, items := range cases {
		enc, err := EncodeBatch(items)
		if err != nil {
			t.Fatalf("EncodeBatch error: %v", err)
		}
		got := mustDecodeBatch(t, enc)
		if len(got) != len(items) {
			t.Fatalf("len mismatch: got %d want %d", len(got), len(items))
		}
		for i := range items {
			g, w := got[i], items[i]
			if g.Key != w.Key || g.Version != w.Version || g.Flags != w.Flags || !bytes.Equal(g.Payload, w.Payload) {
				t.Fatalf("item %d mismatch: got=%+v want=%+v", i, g, w)
			}
		}
	}
}

func TestBatchRejectsTrailingBytes(t *testing.T) {
	enc, err := EncodeBatch([]BatchItem{{Key: "k", Entry: Entry{Version: 1, Payload: []byte("v")}}})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	enc = append(enc, 0xBE, 0xEF)
	if _, err := DecodeBatch(enc); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestBatchBogusCount(t *testing.T) {
	header := func(n uint32) []byte {
		b := append([]byte(nil), magic4[:]...)
		b = append(b, version, kindBatch)
		return binary.BigEndian.AppendUint32(b, n)
	}
	if _, err := DecodeBatch(header(^uint32(0))); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on bogus n, got %v", err)
	}
	if _, err := DecodeBatch(header(1)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected error on missing item body, got %v", err)
	}
}

func TestBatchKeyLengthValidation(t *testing.T) {
	if _, err := EncodeBatch([]BatchItem{{Key: ""}}); !errors.Is(err, ErrKey) {
		t.Fatalf("expected ErrKey on empty key, got %v", err)
	}
	if _, err := EncodeBatch([]BatchItem{{Key: strings.Repeat("a", 0x10000)}}); !errors.Is(err, ErrKey) {
		t.Fatalf("expected ErrKey on key length > 0xFFFF, got %v", err)
	}
	if _, err := EncodeBatch([]BatchItem{{Key: strings.Repeat("b", 0xFFFF)}}); err != nil {
		t.Fatalf("boundary key length should succeed: %v", err)
	}
}

func TestBatchCorruptHeadersAndLengths(t *testing.T) {
	enc, err := EncodeBatch([]BatchItem{{Key: "k", Entry: Entry{Version: 9, Payload: []byte("xyz")}}})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), enc...)
		f(b)
		return b
	}

	// header is 10 bytes; the item is klen(2) key(1) flags(1) version(8) vlen(4) payload
	const (
		flagsAt = 10 + 2 + 1
		vlenAt  = flagsAt + 1 + 8
	)
	cases := map[string][]byte{
		"bad magic":     mutate(func(b []byte) { b[0] = 'X' }),
		"bad version":   mutate(func(b []byte) { b[4] = version + 1 }),
		"wrong kind":    mutate(func(b []byte) { b[5] = kindValue }),
		"unknown flags": mutate(func(b []byte) { b[flagsAt] = 0x40 }),
		"vlen too long": mutate(func(b []byte) { binary.BigEndian.PutUint32(b[vlenAt:vlenAt+4], 4) }),
		"klen too long": mutate(func(b []byte) { binary.BigEndian.PutUint16(b[10:12], 5) }),
		"zero klen":     mutate(func(b []byte) { binary.BigEndian.PutUint16(b[10:12], 0) }),
	}
	for name, b := range cases {
		if _, err := DecodeBatch(b); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestBatchZeroCopyPayloadSlices(t *testing.T) {
	enc, err := EncodeBatch([]BatchItem{
		{Key: "a", Entry: Entry{Version: 1, Payload: []byte("X")}},
		{Key: "b", Entry: Entry{Version: 2, Payload: []byte("Y")}},
	})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	got := mustDecodeBatch(t, enc)
	got[0].Payload[0] = 'Q'
	if mustDecodeBatch(t, enc)[0].Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy payload subslices into enc buffer")
	}
}

func TestPackUnpack(t *testing.T) {
	big := bytes.Repeat([]byte("binjson "), 256)
	cases := []struct {
		name      string
		in        []byte
		threshold int
		zstd      bool
	}{
		{"disabled", big, 0, false},
		{"below threshold", []byte("short"), 64, false},
		{"compressible", big, 64, true},
		{"incompressible", []byte{0x8f, 0x01, 0x55, 0xe3, 0x7a, 0x10, 0xc4, 0x2b}, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags, out := Pack(tc.in, tc.threshold)
			if (flags&FlagZstd != 0) != tc.zstd {
				t.Fatalf("flags=%b, want zstd=%v", flags, tc.zstd)
			}
			if tc.zstd && len(out) >= len(tc.in) {
				t.Fatalf("compressed payload did not shrink: %d >= %d", len(out), len(tc.in))
			}
			back, err := Unpack(flags, out)
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if !bytes.Equal(back, tc.in) {
				t.Fatalf("round trip mismatch")
			}
		})
	}
}

func TestUnpackCorrupt(t *testing.T) {
	if _, err := Unpack(FlagZstd, []byte("not zstd at all")); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
