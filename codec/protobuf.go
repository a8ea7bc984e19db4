package codec

import (
	"fmt"
	"sort"

	"github.com/unkn0wn-root/binjson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf stores Values as a google.protobuf.Value message. Every number
// becomes a double, so integers above 2^53 lose precision, and struct fields
// are unordered.
type Protobuf struct{}

var _ Codec[binjson.Value] = Protobuf{}

func (Protobuf) Encode(v binjson.Value) ([]byte, error) {
	pv, err := toProto(v)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

func (Protobuf) Decode(b []byte) (binjson.Value, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return binjson.Value{}, err
	}
	return fromProto(&pv)
}

func toProto(v binjson.Value) (*structpb.Value, error) {
	switch v.Kind() {
	case binjson.KindNull:
		return structpb.NewNullValue(), nil
	case binjson.KindBool:
		b, _ := v.AsBool()
		return structpb.NewBoolValue(b), nil
	case binjson.KindNumber:
		n, _ := v.AsNumber()
		return structpb.NewNumberValue(n.Float64()), nil
	case binjson.KindString:
		s, _ := v.AsString()
		return structpb.NewStringValue(s), nil
	case binjson.KindArray:
		list := &structpb.ListValue{Values: make([]*structpb.Value, 0, v.Len())}
		for _, e := range v.Elems() {
			pe, err := toProto(e)
			if err != nil {
				return nil, err
			}
			list.Values = append(list.Values, pe)
		}
		return structpb.NewListValue(list), nil
	case binjson.KindObject:
		st := &structpb.Struct{Fields: make(map[string]*structpb.Value, v.Len())}
		for _, m := range v.Members() {
			pe, err := toProto(m.Value)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", m.Key, err)
			}
			st.Fields[m.Key] = pe
		}
		return structpb.NewStructValue(st), nil
	}
	return nil, fmt.Errorf("codec: unknown value kind %v", v.Kind())
}

func fromProto(pv *structpb.Value) (binjson.Value, error) {
	switch k := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return binjson.Null(), nil
	case *structpb.Value_BoolValue:
		return binjson.Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		return binjson.Float(k.NumberValue), nil
	case *structpb.Value_StringValue:
		return binjson.String(k.StringValue), nil
	case *structpb.Value_ListValue:
		elems := make([]binjson.Value, len(k.ListValue.GetValues()))
		for i, e := range k.ListValue.GetValues() {
			v, err := fromProto(e)
			if err != nil {
				return binjson.Value{}, err
			}
			elems[i] = v
		}
		return binjson.Array(elems...), nil
	case *structpb.Value_StructValue:
		fields := k.StructValue.GetFields()
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		members := make([]binjson.Member, len(keys))
		for i, key := range keys {
			v, err := fromProto(fields[key])
			if err != nil {
				return binjson.Value{}, fmt.Errorf("%q: %w", key, err)
			}
			members[i] = binjson.Member{Key: key, Value: v}
		}
		return binjson.Object(members...), nil
	}
	return binjson.Value{}, fmt.Errorf("codec: unsupported protobuf value %T", pv.GetKind())
}
