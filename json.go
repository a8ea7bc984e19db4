package binjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

var errJSONNumber = errors.New("binjson: NaN and infinities have no JSON form")

// MarshalJSON renders v as compact JSON with object members in order.
func (v Value) MarshalJSON() ([]byte, error) {
	if err := checkJSON(v); err != nil {
		return nil, err
	}
	return appendJSON(nil, v), nil
}

// UnmarshalJSON parses JSON into v, keeping member order and exact integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseJSON parses a single JSON document.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseJSONValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("binjson: trailing data after JSON value")
	}
	return v, nil
}

func parseJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := ParseNumber(t.String())
		if err != nil {
			return Value{}, err
		}
		return Num(n), nil
	case json.Delim:
		switch t {
		case '[':
			elems := []Value{}
			for dec.More() {
				e, err := parseJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(elems...), nil
		case '{':
			var members []Member
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("binjson: object key is %T", kt)
				}
				e, err := parseJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: e})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		}
	}
	return Value{}, fmt.Errorf("binjson: unexpected JSON token %v", tok)
}

func checkJSON(v Value) error {
	switch v.kind {
	case KindNumber:
		if v.n.float && (math.IsNaN(v.n.f) || math.IsInf(v.n.f, 0)) {
			return errJSONNumber
		}
	case KindArray:
		for _, e := range v.arr {
			if err := checkJSON(e); err != nil {
				return err
			}
		}
	case KindObject:
		for _, m := range v.obj {
			if err := checkJSON(m.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendJSON writes v as JSON; non-finite floats print as null.
func appendJSON(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindNumber:
		if v.n.float && (math.IsNaN(v.n.f) || math.IsInf(v.n.f, 0)) {
			return append(dst, "null"...)
		}
		return append(dst, v.n.String()...)
	case KindString:
		return appendJSONString(dst, v.s)
	case KindArray:
		dst = append(dst, '[')
		for i, e := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSON(dst, e)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		for i, m := range v.obj {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSONString(dst, m.Key)
			dst = append(dst, ':')
			dst = appendJSON(dst, m.Value)
		}
		return append(dst, '}')
	}
	return dst
}

func appendJSONString(dst []byte, s string) []byte {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, b...)
}
