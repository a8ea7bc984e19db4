package buffer

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestFixedWidthLittleEndian(t *testing.T) {
	w := New(0)
	w.WriteUint8(0xAB)
	w.WriteUint16(0x0102)
	w.WriteUint32(0x01020304)
	w.WriteUint64(0x0102030405060708)

	want := []byte{
		0xAB,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	got := w.Bytes()
	if string(got) != string(want) {
		t.Fatalf("bytes mismatch: got %x want %x", got, want)
	}

	r := NewReader(got)
	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Fatalf("u8: %v %x", err, v)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x0102 {
		t.Fatalf("u16: %v %x", err, v)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0x01020304 {
		t.Fatalf("u32: %v %x", err, v)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("u64: %v %x", err, v)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected fully consumed, remaining=%d", r.Remaining())
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1)} {
		w := New(8)
		w.WriteFloat64(f)
		got, err := NewReader(w.Bytes()).ReadFloat64()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != f {
			t.Fatalf("float mismatch: got %v want %v", got, f)
		}
	}
}

func TestVarint(t *testing.T) {
	cases := []struct {
		v   uint64
		len int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{1<<49 - 1, 7},
		{1 << 49, 8},
		{math.MaxUint64, 10},
	}
	for _, tc := range cases {
		if got := VarintLen(tc.v); got != tc.len {
			t.Fatalf("VarintLen(%d)=%d want %d", tc.v, got, tc.len)
		}
		w := New(0)
		w.WriteVarint(tc.v)
		if w.Len() != tc.len {
			t.Fatalf("encoded len for %d: %d want %d", tc.v, w.Len(), tc.len)
		}
		got, err := NewReader(w.Bytes()).ReadVarint()
		if err != nil || got != tc.v {
			t.Fatalf("varint %d: got %d err %v", tc.v, got, err)
		}
	}
}

func TestVarintOverflow(t *testing.T) {
	b := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, err := NewReader(b).ReadVarint(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := NewReader([]byte{0x80}).ReadVarint(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort on unterminated varint, got %v", err)
	}
}

func TestVString(t *testing.T) {
	long := strings.Repeat("x", 300)
	w := New(4)
	w.WriteVString("")
	w.WriteVString("héllo")
	w.WriteVString(long)

	r := NewReader(w.Bytes())
	for _, want := range []string{"", "héllo", long} {
		got, err := r.ReadVString()
		if err != nil || got != want {
			t.Fatalf("vstring: got %q err %v want %q", got, err, want)
		}
	}
}

func TestVStringLengthBeyondBuffer(t *testing.T) {
	// announces 5 bytes, only 2 available
	if _, err := NewReader([]byte{0x05, 'a', 'b'}).ReadVString(); !errors.Is(err, ErrShort) {
		t.Fatalf("expected ErrShort, got %v", err)
	}
}

func TestShortReads(t *testing.T) {
	r := NewReader([]byte{1})
	if _, err := r.ReadUint16(); !errors.Is(err, ErrShort) {
		t.Fatalf("u16 short: %v", err)
	}
	if r.Offset() != 0 {
		t.Fatalf("failed read must not advance, offset=%d", r.Offset())
	}
	if _, err := r.ReadUint64(); !errors.Is(err, ErrShort) {
		t.Fatalf("u64 short: %v", err)
	}
	if _, err := NewReader(nil).Peek(); !errors.Is(err, ErrShort) {
		t.Fatalf("peek empty: %v", err)
	}
}

func TestGrowthAccommodatesPendingWrite(t *testing.T) {
	w := New(1)
	big := strings.Repeat("z", 1000)
	w.WriteVString(big)
	if w.Cap() < w.Len() {
		t.Fatalf("cap %d < len %d", w.Cap(), w.Len())
	}
	if w.Len() != 2+1000 {
		t.Fatalf("len=%d", w.Len())
	}
	got, err := NewReader(w.Bytes()).ReadVString()
	if err != nil || got != big {
		t.Fatalf("round trip after growth failed: %v", err)
	}
}
