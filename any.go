package binjson

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FromAny converts the generic shapes produced by encoding/json, CBOR and
// msgpack decoders into a Value. Map keys are sorted so the result is
// deterministic.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
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
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = v
		}
		return Array(elems...), nil
	case []string:
		elems := make([]Value, len(t))
		for i, s := range t {
			elems[i] = String(s)
		}
		return Array(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(t))
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%q: %w", k, err)
			}
			members = append(members, Member{Key: k, Value: v})
		}
		return Object(members...), nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("binjson: non-string map key %T", k)
			}
			m[ks] = e
		}
		return FromAny(m)
	default:
		return Value{}, fmt.Errorf("binjson: unsupported type %T", x)
	}
}

// Interface converts v to plain Go values: nil, bool, string, int64 or
// uint64 for integers, float64 otherwise, []any and map[string]any.
// Negative integers below math.MinInt64 become float64. Member order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindNumber:
		if i, ok := v.n.Int64(); ok {
			return i
		}
		if u, ok := v.n.Uint64(); ok {
			return u
		}
		return v.n.Float64()
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for _, m := range v.obj {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}
