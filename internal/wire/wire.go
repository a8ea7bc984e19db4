// Package wire frames encoded values for a byte-oriented provider.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindValue byte = 1
	kindBatch byte = 2

	// FlagZstd marks a zstd-compressed payload.
	FlagZstd byte = 1 << 0

	knownFlags = FlagZstd
)

var (
	ErrCorrupt = errors.New("binjson: corrupt entry")
	ErrKey     = errors.New("binjson: invalid key length in batch")
	magic4     = [...]byte{'B', 'J', 'S', 'N'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is one stored value: the version it was written under, payload
// flags and the codec output (compressed when FlagZstd is set).
type Entry struct {
	Version uint64
	Flags   byte
	Payload []byte
}

// Value: magic(4) | ver(1) | kind(1=value) | flags(1) | version(u64 be) | vlen(u32 be) | payload(vlen)
const valueHeader = 4 + 1 + 1 + 1 + 8 + 4

func EncodeValue(e Entry) []byte {
	buf := make([]byte, 0, valueHeader+len(e.Payload))
	buf = append(buf, magic4[:]...)
	buf = append(buf, version, kindValue, e.Flags)
	buf = binary.BigEndian.AppendUint64(buf, e.Version)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(e.Payload)))
	return append(buf, e.Payload...)
}

// DecodeValue parses a value frame. Payload aliases b.
func DecodeValue(b []byte) (Entry, error) {
	if len(b) < valueHeader || !hasMagic(b) || b[4] != version || b[5] != kindValue {
		return Entry{}, ErrCorrupt
	}
	e := Entry{Flags: b[6]}
	if e.Flags&^knownFlags != 0 {
		return Entry{}, ErrCorrupt
	}
	e.Version = binary.BigEndian.Uint64(b[7:15])
	vlen := int(binary.BigEndian.Uint32(b[15:19]))
	if vlen != len(b)-valueHeader {
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[valueHeader:]
	return e, nil
}

// Batch:
//
//	magic(4) | ver(1) | kind(2=batch) | n(u32 be)
//	keyLen(u16 be) | key(keyLen) | flags(1) | version(u64 be) | vlen(u32 be) | payload(vlen) * n
type BatchItem struct {
	Key string
	Entry
}

const batchHeader = 4 + 1 + 1 + 4

func EncodeBatch(items []BatchItem) ([]byte, error) {
	total := batchHeader
	for _, it := range items {
		if l := len(it.Key); l == 0 || l > 0xFFFF {
			return nil, ErrKey
		}
		total += 2 + len(it.Key) + 1 + 8 + 4 + len(it.Payload)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, magic4[:]...)
	buf = append(buf, version, kindBatch)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(items)))
	for _, it := range items {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(it.Key)))
		buf = append(buf, it.Key...)
		buf = append(buf, it.Flags)
		buf = binary.BigEndian.AppendUint64(buf, it.Version)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(it.Payload)))
		buf = append(buf, it.Payload...)
	}
	return buf, nil
}

// DecodeBatch parses a batch frame. Payloads alias b.
func DecodeBatch(b []byte) ([]BatchItem, error) {
	if len(b) < batchHeader || !hasMagic(b) || b[4] != version || b[5] != kindBatch {
		return nil, ErrCorrupt
	}
	n := int(binary.BigEndian.Uint32(b[6:10]))
	off := batchHeader

	// every item needs at least 16 bytes; reject impossible counts before allocating
	if n > (len(b)-off)/16 {
		return nil, ErrCorrupt
	}

	items := make([]BatchItem, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		klen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if klen == 0 || klen > len(b)-off {
			return nil, ErrCorrupt
		}
		key := string(b[off : off+klen])
		off += klen

		if off+1+8+4 > len(b) {
			return nil, ErrCorrupt
		}
		flags := b[off]
		if flags&^knownFlags != 0 {
			return nil, ErrCorrupt
		}
		ver := binary.BigEndian.Uint64(b[off+1 : off+9])
		vlen := int(binary.BigEndian.Uint32(b[off+9 : off+13]))
		off += 13
		if vlen > len(b)-off {
			return nil, ErrCorrupt
		}

		items = append(items, BatchItem{
			Key:   key,
			Entry: Entry{Version: ver, Flags: flags, Payload: b[off : off+vlen]},
		})
		off += vlen
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
