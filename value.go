package binjson

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-shaped value. The zero Value is null.
//
// Values form trees: a container owns its children and no Value is shared
// between two parents. Treat a constructed Value as immutable.
type Value struct {
	kind Kind
	b    bool
	n    Number
	s    string
	arr  []Value
	obj  []Member
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Num(n Number) Value         { return Value{kind: KindNumber, n: n} }
func Float(f float64) Value      { return Num(floatNumber(f)) }
func Uint(u uint64) Value        { return Num(intNumber(false, u)) }
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

func Int(i int64) Value {
	if i < 0 {
		return Num(intNumber(true, uint64(-(i+1))+1))
	}
	return Num(intNumber(false, uint64(i)))
}

// Integer builds an integer from a sign and a full 64-bit magnitude, covering
// values below math.MinInt64.
func Integer(negative bool, magnitude uint64) Value {
	return Num(intNumber(negative, magnitude))
}

// Object builds an object from members in order. A repeated key keeps the
// position of its first occurrence and the value of its last.
func Object(members ...Member) Value {
	out := make([]Member, 0, len(members))
	var seen map[string]int
	for _, m := range members {
		if seen == nil {
			seen = make(map[string]int, len(members))
		}
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, obj: out}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsNumber() (Number, bool) { return v.n, v.kind == KindNumber }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Elems returns the elements of an array; nil otherwise. Do not modify.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Members returns the members of an object in order; nil otherwise. Do not modify.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Len is the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Index returns the i-th array element, or null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Equal reports logical equality. Object member order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n.Equal(o.n)
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for _, m := range v.obj {
			ov, ok := o.Get(m.Key)
			if !ok || !m.Value.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		v.arr = arr
	case KindObject:
		obj := make([]Member, len(v.obj))
		for i, m := range v.obj {
			obj[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
		v.obj = obj
	}
	return v
}

// String renders v as compact JSON; unrepresentable numbers print as null.
func (v Value) String() string {
	return string(appendJSON(nil, v))
}
