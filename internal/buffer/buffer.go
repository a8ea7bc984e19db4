// Package buffer is the growable little-endian byte buffer used by the codec:
// fixed-width unsigned integers, float64, LEB128 varints and varint-prefixed strings.
package buffer

import (
	"encoding/binary"
	"errors"
	"math"
)

const minGrow = 128

var (
	ErrShort    = errors.New("buffer: read past end")
	ErrOverflow = errors.New("buffer: varint overflows 64 bits")
)

// Buffer is an append-only write buffer. The zero value is ready to use.
type Buffer struct {
	b []byte
}

func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{b: make([]byte, 0, capacity)}
}

// reserve makes room for n more bytes, reallocating when the pending write
// would exceed the remaining capacity.
func (w *Buffer) reserve(n int) {
	if cap(w.b)-len(w.b) >= n {
		return
	}
	grow := cap(w.b)
	if grow < minGrow {
		grow = minGrow
	}
	if grow < n {
		grow = n
	}
	nb := make([]byte, len(w.b), cap(w.b)+grow)
	copy(nb, w.b)
	w.b = nb
}

func (w *Buffer) Len() int { return len(w.b) }
func (w *Buffer) Cap() int { return cap(w.b) }

// Bytes returns the written bytes. The slice aliases the buffer until the next write.
func (w *Buffer) Bytes() []byte { return w.b }

func (w *Buffer) WriteUint8(v uint8) {
	w.reserve(1)
	w.b = append(w.b, v)
}

func (w *Buffer) WriteUint16(v uint16) {
	w.reserve(2)
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
}

func (w *Buffer) WriteUint32(v uint32) {
	w.reserve(4)
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

func (w *Buffer) WriteUint64(v uint64) {
	w.reserve(8)
	w.b = binary.LittleEndian.AppendUint64(w.b, v)
}

func (w *Buffer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

func (w *Buffer) WriteVarint(v uint64) {
	w.reserve(VarintLen(v))
	w.b = binary.AppendUvarint(w.b, v)
}

// WriteVString writes a varint byte length followed by the string bytes.
func (w *Buffer) WriteVString(s string) {
	w.reserve(VarintLen(uint64(len(s))) + len(s))
	w.b = binary.AppendUvarint(w.b, uint64(len(s)))
	w.b = append(w.b, s...)
}

// VarintLen is the encoded size of v in bytes.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Reader is a read cursor over an immutable byte slice.
type Reader struct {
	b   []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{b: b} }

func (r *Reader) Offset() int    { return r.off }
func (r *Reader) Remaining() int { return len(r.b) - r.off }

// Peek returns the next byte without advancing.
func (r *Reader) Peek() (byte, error) {
	if r.off >= len(r.b) {
		return 0, ErrShort
	}
	return r.b[r.off], nil
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || n > len(r.b)-r.off { // overflow-safe bound check
		return nil, ErrShort
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	p, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	p, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	p, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	p, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	u, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *Reader) ReadVarint() (uint64, error) {
	v, n := binary.Uvarint(r.b[r.off:])
	switch {
	case n == 0:
		return 0, ErrShort
	case n < 0:
		return 0, ErrOverflow
	}
	r.off += n
	return v, nil
}

// ReadVString reads a varint-prefixed string. The returned string owns its bytes.
func (r *Reader) ReadVString() (string, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return "", err
	}
	if n > uint64(r.Remaining()) {
		return "", ErrShort
	}
	p, err := r.next(int(n))
	if err != nil {
		return "", err
	}
	return string(p), nil
}
