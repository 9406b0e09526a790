// Package value holds the in-memory representation of flat message values:
// zero-value construction, the per-kind coercion table, partial merges,
// equality and cloning.
package value

import (
	"bytes"
	"math"

	"github.com/anirudhraja/flatproto/schema"
)

// UnknownFieldsKey is the Value entry that carries preserved unknown field
// bytes when the decoder is configured to keep them.
const UnknownFieldsKey = schema.ReservedFieldName

// Value is a message value keyed by proto field name.
type Value map[string]any

// Zero returns the zero value of a primitive type in its canonical Go type.
func Zero(t schema.PrimitiveType) any {
	switch t {
	case schema.TypeDouble:
		return float64(0)
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return int64(0)
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeUint64, schema.TypeFixed64:
		return uint64(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	case schema.TypeBool:
		return false
	case schema.TypeString:
		return ""
	case schema.TypeBytes:
		return []byte{}
	default:
		return nil
	}
}

// IsZero reports whether v is the zero value of t. Missing values (nil) are
// zero. Floats compare by bit pattern so negative zero is not zero.
func IsZero(t schema.PrimitiveType, v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.Float64bits(x) == 0
	case float32:
		return math.Float32bits(x) == 0
	case int64:
		return x == 0
	case int32:
		return x == 0
	case uint64:
		return x == 0
	case uint32:
		return x == 0
	case bool:
		return !x
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	}
	c, err := Coerce(t, v)
	if err != nil {
		return false
	}
	return IsZero(t, c)
}

// CreateBase returns a Value with every field of msg at its zero value.
func CreateBase(msg *schema.Message) Value {
	v := make(Value, len(msg.Fields))
	for _, f := range msg.Fields {
		v[f.Name] = Zero(f.Type)
	}
	return v
}

// Get returns the canonical value of field f in v, the zero value when the
// entry is missing.
func (v Value) Get(f *schema.Field) (any, error) {
	raw, ok := v[f.Name]
	if !ok || raw == nil {
		return Zero(f.Type), nil
	}
	c, err := Canonical(f.Type, raw)
	if err != nil {
		return nil, withField(err, f.Name)
	}
	return c, nil
}

// Unknown returns the preserved unknown field bytes of v, if any.
func (v Value) Unknown() []byte {
	b, _ := v[UnknownFieldsKey].([]byte)
	return b
}

// Equal reports whether a and b hold the same field values for msg. Missing
// entries compare as zero values, bytes compare by content and preserved
// unknown bytes must match.
func Equal(msg *schema.Message, a, b Value) bool {
	for _, f := range msg.Fields {
		av, err := a.Get(f)
		if err != nil {
			return false
		}
		bv, err := b.Get(f)
		if err != nil {
			return false
		}
		if ab, ok := av.([]byte); ok {
			if !bytes.Equal(ab, bv.([]byte)) {
				return false
			}
			continue
		}
		if av != bv {
			return false
		}
	}
	return bytes.Equal(a.Unknown(), b.Unknown())
}

// Clone returns a deep copy of the fields of v known to msg, plus any
// preserved unknown bytes.
func Clone(msg *schema.Message, v Value) Value {
	out := make(Value, len(msg.Fields))
	for _, f := range msg.Fields {
		raw, ok := v[f.Name]
		if !ok {
			continue
		}
		if b, ok := raw.([]byte); ok {
			raw = append([]byte{}, b...)
		}
		out[f.Name] = raw
	}
	if u := v.Unknown(); len(u) > 0 {
		out[UnknownFieldsKey] = append([]byte(nil), u...)
	}
	return out
}
