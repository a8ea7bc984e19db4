package binjson

import (
	"errors"
	"strconv"

	"github.com/unkn0wn-root/binjson/internal/buffer"
)

// decoder is a read cursor plus the dictionary decoded so far.
type decoder struct {
	r        *buffer.Reader
	dict     []Value
	hasDict  bool
	maxDepth int
}

func (d *decoder) fail(off int, t Tag, err error) error {
	switch {
	case errors.Is(err, buffer.ErrShort):
		err = ErrTruncatedStream
	case errors.Is(err, buffer.ErrOverflow):
		err = ErrNumericOverflow
	}
	return &DecodeError{Offset: off, Tag: t, Err: err}
}

func (d *decoder) decode() (Value, error) {
	if b, err := d.r.Peek(); err == nil && Tag(b) == TagDictionary {
		if err := d.readDictionary(); err != nil {
			return Value{}, err
		}
	}
	off := d.r.Offset()
	_, v, ok, err := d.readValue(false, 0)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, d.fail(off, TagEnd, ErrUnexpectedEnd)
	}
	if d.r.Remaining() > 0 {
		return Value{}, d.fail(d.r.Offset(), 0, ErrTrailingBytes)
	}
	return v, nil
}

// readDictionary decodes the leading dictionary block. Entry i becomes
// referenceable as soon as it is decoded, so entries may point at earlier ones.
func (d *decoder) readDictionary() error {
	start := d.r.Offset()
	_, _ = d.r.ReadUint8()
	d.hasDict = true
	d.dict = []Value{}
	for {
		if d.r.Remaining() == 0 {
			return d.fail(start, TagDictionary, ErrUnterminatedContainer)
		}
		_, v, ok, err := d.readValue(false, 0)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		d.dict = append(d.dict, v)
	}
}

// readValue reads one tagged value. ok is false when the tag was End.
func (d *decoder) readValue(named bool, depth int) (key string, v Value, ok bool, err error) {
	off := d.r.Offset()
	b, err := d.r.ReadUint8()
	if err != nil {
		return "", Value{}, false, d.fail(off, 0, err)
	}
	t := Tag(b)
	if !t.Valid() {
		return "", Value{}, false, d.fail(off, t, ErrUnknownTag)
	}
	if t == TagEnd {
		return "", Value{}, false, nil
	}
	if named {
		if key, err = d.readKey(); err != nil {
			return "", Value{}, false, err
		}
	}

	switch t {
	case TagObject:
		v, err = d.readObject(off, depth+1)
	case TagArray, TagDictionary:
		v, err = d.readArray(off, t, depth+1)
	case TagString:
		var s string
		if s, err = d.r.ReadVString(); err == nil {
			v = String(s)
		}
	case TagBooleanFalse:
		v = Bool(false)
	case TagBooleanTrue:
		v = Bool(true)
	case TagNull:
		v = Null()
	case TagDouble:
		var f float64
		if f, err = d.r.ReadFloat64(); err == nil {
			v = Float(f)
		}
	case TagDictionaryEntry:
		v, err = d.readReference()
	default:
		v, err = d.readInteger(t)
	}
	if err != nil {
		var de *DecodeError
		if !errors.As(err, &de) {
			err = d.fail(off, t, err)
		}
		return "", Value{}, false, err
	}
	return key, v, true, nil
}

// readKey reads a member key: a String value or a reference to one. Any
// other tag is rejected before its payload is read, so keys never nest.
func (d *decoder) readKey() (string, error) {
	off := d.r.Offset()
	b, err := d.r.ReadUint8()
	if err != nil {
		return "", d.fail(off, 0, err)
	}
	t := Tag(b)
	switch {
	case !t.Valid():
		return "", d.fail(off, t, ErrUnknownTag)
	case t == TagEnd:
		return "", d.fail(off, t, ErrUnexpectedEnd)
	case t == TagString:
		s, err := d.r.ReadVString()
		if err != nil {
			return "", d.fail(off, t, err)
		}
		return s, nil
	case t == TagDictionaryEntry:
		v, err := d.readReference()
		if err != nil {
			return "", d.fail(off, t, err)
		}
		s, ok := v.AsString()
		if !ok {
			return "", d.fail(off, t, ErrInvalidKey)
		}
		return s, nil
	default:
		return "", d.fail(off, t, ErrInvalidKey)
	}
}

func (d *decoder) readObject(start, depth int) (Value, error) {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return Value{}, d.fail(start, TagObject, ErrTooDeep)
	}
	var members []Member
	for {
		if d.r.Remaining() == 0 {
			return Value{}, d.fail(start, TagObject, ErrUnterminatedContainer)
		}
		k, v, ok, err := d.readValue(true, depth)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			// duplicate keys: first position, last value
			return Object(members...), nil
		}
		members = append(members, Member{Key: k, Value: v})
	}
}

func (d *decoder) readArray(start int, t Tag, depth int) (Value, error) {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return Value{}, d.fail(start, t, ErrTooDeep)
	}
	elems := []Value{}
	for {
		if d.r.Remaining() == 0 {
			return Value{}, d.fail(start, t, ErrUnterminatedContainer)
		}
		_, v, ok, err := d.readValue(false, depth)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return Array(elems...), nil
		}
		elems = append(elems, v)
	}
}

func (d *decoder) readReference() (Value, error) {
	if !d.hasDict {
		return Value{}, ErrDictionaryEntryWithoutDictionary
	}
	idx, err := d.r.ReadVarint()
	if err != nil {
		return Value{}, err
	}
	if idx >= uint64(len(d.dict)) {
		return Value{}, ErrDictionaryIndex
	}
	return d.dict[idx].Clone(), nil
}

// readInteger applies the tag's sign to the magnitude. Int64 magnitudes
// above 2^53 come back as decimal strings to keep them exact.
func (d *decoder) readInteger(t Tag) (Value, error) {
	var (
		mag uint64
		err error
	)
	switch t {
	case TagPositiveInt8, TagNegativeInt8:
		var u uint8
		u, err = d.r.ReadUint8()
		mag = uint64(u)
	case TagPositiveInt16, TagNegativeInt16:
		var u uint16
		u, err = d.r.ReadUint16()
		mag = uint64(u)
	case TagPositiveInt32, TagNegativeInt32:
		var u uint32
		u, err = d.r.ReadUint32()
		mag = uint64(u)
	case TagPositiveVarInt64, TagNegativeVarInt64:
		mag, err = d.r.ReadVarint()
	case TagPositiveInt64, TagNegativeInt64:
		mag, err = d.r.ReadUint64()
		if err == nil && mag > maxExact {
			s := strconv.FormatUint(mag, 10)
			if t.Negative() {
				s = "-" + s
			}
			return String(s), nil
		}
	default:
		return Value{}, ErrUnknownTag
	}
	if err != nil {
		return Value{}, err
	}
	return Integer(t.Negative(), mag), nil
}
