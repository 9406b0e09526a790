package value

import "github.com/anirudhraja/flatproto/schema"

// FromPartial merges partial over the zero value of msg, field by field.
// Keys may be proto names or JSON names; the proto name wins when both are
// present. Omitted keys take the zero value and keys that name no field are
// ignored. Preserved unknown bytes are carried over.
func FromPartial(msg *schema.Message, partial Value) (Value, error) {
	out := CreateBase(msg)
	if partial == nil {
		return out, nil
	}
	for _, f := range msg.Fields {
		raw, ok := lookup(partial, f)
		if !ok {
			continue
		}
		c, err := CoerceField(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = c
	}
	if u := partial.Unknown(); len(u) > 0 {
		out[UnknownFieldsKey] = append([]byte(nil), u...)
	}
	return out, nil
}

func lookup(v Value, f *schema.Field) (any, bool) {
	if raw, ok := v[f.Name]; ok {
		return raw, true
	}
	raw, ok := v[f.JSONName()]
	return raw, ok
}
