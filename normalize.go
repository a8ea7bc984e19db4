package binjson

// Normalize replaces every string value that is an integer literal
// (^-?[0-9]+$) fitting a 64-bit magnitude with the equivalent Number.
// Object keys are left alone, as are strings whose magnitude overflows.
//
// Encode applies it unless Options.DisableNumericCoercion is set, so a
// numeric string decodes as a number, or back as a string when its
// magnitude exceeds 2^53.
func Normalize(v Value) Value {
	switch v.kind {
	case KindString:
		if neg, mag, ok := parseInteger(v.s); ok {
			return Integer(neg, mag)
		}
	case KindArray:
		elems := make([]Value, len(v.arr))
		for i, e := range v.arr {
			elems[i] = Normalize(e)
		}
		v.arr = elems
	case KindObject:
		members := make([]Member, len(v.obj))
		for i, m := range v.obj {
			members[i] = Member{Key: m.Key, Value: Normalize(m.Value)}
		}
		v.obj = members
	}
	return v
}
