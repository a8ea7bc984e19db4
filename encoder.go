package binjson

import (
	"math"
	"strconv"

	"github.com/unkn0wn-root/binjson/internal/buffer"
)

// encoder carries the state of one Encode call. On the direct path dict is
// nil and phase starts at phaseEmitting.
type encoder struct {
	buf      *buffer.Buffer
	dict     *dictionary
	keys     map[string]dictKey
	phase    phase
	limit    int // dictionary positions below limit may be referenced
	maxDepth int
	refs     int
}

func (e *encoder) enter(p phase) {
	if p != e.phase+1 {
		panic("binjson: illegal phase transition " + e.phase.String() + " -> " + p.String())
	}
	e.phase = p
}

func (e *encoder) emitting() bool { return e.phase == phaseEmitting }

func (e *encoder) writeTag(t Tag) {
	if e.emitting() {
		e.buf.WriteUint8(uint8(t))
	}
}

// writeHead writes the tag and, for object members, the key that follows it.
func (e *encoder) writeHead(t Tag, key string, named bool) {
	e.writeTag(t)
	if named {
		e.writeKey(key)
	}
}

func (e *encoder) writeKey(key string) {
	if e.dict != nil && key != "" {
		k := cachedStringKey(e.keys, key)
		if e.reference(String(key), &node{key: k}, "", false) {
			return
		}
	}
	if e.emitting() {
		e.buf.WriteUint8(uint8(TagString))
		e.buf.WriteVString(key)
	}
}

// reference replaces v by a dictionary entry when one exists. While
// simulating it only marks the entry as used.
func (e *encoder) reference(v Value, n *node, key string, named bool) bool {
	if e.dict == nil || n == nil || !qualifies(v) {
		return false
	}
	ent := e.dict.lookup(n.key)
	if ent == nil {
		return false
	}
	switch e.phase {
	case phaseSimulating:
		ent.used = true
		if named {
			e.writeKey(key)
		}
		return true
	case phaseEmitting:
		if ent.position >= e.limit {
			return false
		}
		e.writeHead(TagDictionaryEntry, key, named)
		e.buf.WriteVarint(uint64(ent.position))
		e.refs++
		return true
	}
	return false
}

func (e *encoder) writeValue(v Value, n *node, key string, named bool, depth int) error {
	if e.maxDepth > 0 && depth > e.maxDepth {
		return &EncodeError{Err: ErrTooDeep}
	}
	if e.reference(v, n, key, named) {
		return nil
	}
	switch v.kind {
	case KindNull:
		e.writeHead(TagNull, key, named)
	case KindBool:
		if v.b {
			e.writeHead(TagBooleanTrue, key, named)
		} else {
			e.writeHead(TagBooleanFalse, key, named)
		}
	case KindNumber:
		return e.writeNumber(v.n, key, named)
	case KindString:
		e.writeHead(TagString, key, named)
		if e.emitting() {
			e.buf.WriteVString(v.s)
		}
	case KindArray:
		e.writeHead(TagArray, key, named)
		for i, el := range v.arr {
			if err := e.writeValue(el, n.child(i), "", false, depth+1); err != nil {
				return atPath(err, "["+strconv.Itoa(i)+"]")
			}
		}
		e.writeTag(TagEnd)
	case KindObject:
		e.writeHead(TagObject, key, named)
		for i, m := range v.obj {
			if err := e.writeValue(m.Value, n.child(i), m.Key, true, depth+1); err != nil {
				return atPath(err, memberPath(m.Key))
			}
		}
		e.writeTag(TagEnd)
	}
	return nil
}

func (e *encoder) writeNumber(n Number, key string, named bool) error {
	if n.IsNaN() {
		return &EncodeError{Err: ErrInvalidNumber}
	}
	if n.float {
		e.writeHead(TagDouble, key, named)
		if e.emitting() {
			e.buf.WriteFloat64(n.f)
		}
		return nil
	}

	width := widthTag(n.mag)
	t := width
	if n.neg {
		t = t.negate()
	}
	e.writeHead(t, key, named)
	if !e.emitting() {
		return nil
	}
	switch width {
	case TagPositiveInt8:
		e.buf.WriteUint8(uint8(n.mag))
	case TagPositiveInt16:
		e.buf.WriteUint16(uint16(n.mag))
	case TagPositiveInt32:
		e.buf.WriteUint32(uint32(n.mag))
	case TagPositiveVarInt64:
		e.buf.WriteVarint(n.mag)
	default:
		e.buf.WriteUint64(n.mag)
	}
	return nil
}

// widthTag picks the narrowest positive integer tag for a magnitude.
// The bounds are exclusive, so 255 already needs 16 bits.
func widthTag(mag uint64) Tag {
	switch {
	case mag < math.MaxUint8:
		return TagPositiveInt8
	case mag < math.MaxUint16:
		return TagPositiveInt16
	case mag < math.MaxUint32:
		return TagPositiveInt32
	case buffer.VarintLen(mag) < 8:
		return TagPositiveVarInt64
	default:
		return TagPositiveInt64
	}
}

func memberPath(key string) string {
	if key == "" {
		return `[""]`
	}
	for _, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "[" + strconv.Quote(key) + "]"
		}
	}
	return "." + key
}
