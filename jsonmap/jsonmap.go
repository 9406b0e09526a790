// Package jsonmap converts flat message values to and from their JSON form:
// one key per non-zero field, named by the field's JSON name.
package jsonmap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/value"
)

// ToJSON returns the JSON object for v. Zero-valued fields are omitted.
func ToJSON(msg *schema.Message, v value.Value) (map[string]any, error) {
	return toJSON(msg, v, Int64Representation())
}

func toJSON(msg *schema.Message, v value.Value, mode Int64Mode) (map[string]any, error) {
	out := make(map[string]any)
	for _, f := range msg.Fields {
		c, err := v.Get(f)
		if err != nil {
			return nil, err
		}
		if value.IsZero(f.Type, c) {
			continue
		}
		out[f.JSONName()] = jsonValue(c, mode)
	}
	return out, nil
}

// jsonValue maps a canonical value onto a type encoding/json writes in the
// protobuf JSON form.
func jsonValue(v any, mode Int64Mode) any {
	switch x := v.(type) {
	case int64:
		if mode == Int64String {
			return strconv.FormatInt(x, 10)
		}
		return x
	case uint64:
		if mode == Int64String {
			return strconv.FormatUint(x, 10)
		}
		return x
	case float64:
		return floatValue(x, x)
	case float32:
		return floatValue(float64(x), x)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	default:
		return v
	}
}

func floatValue(f float64, orig any) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return orig
	}
}

// FromJSON builds a Value from a decoded JSON object. Keys may be JSON names
// or proto names; null and missing keys mean the zero value and unknown keys
// are ignored.
func FromJSON(msg *schema.Message, obj map[string]any) (value.Value, error) {
	out := value.CreateBase(msg)
	for _, f := range msg.Fields {
		raw, ok := obj[f.JSONName()]
		if !ok {
			raw, ok = obj[f.Name]
		}
		if !ok || raw == nil {
			continue
		}
		c, err := value.CoerceField(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = c
	}
	return out, nil
}

// Marshal returns the JSON text of v with keys in shape order.
func Marshal(msg *schema.Message, v value.Value) ([]byte, error) {
	return marshal(msg, v, Int64Representation())
}

func marshal(msg *schema.Message, v value.Value, mode Int64Mode) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range msg.Fields {
		c, err := v.Get(f)
		if err != nil {
			return nil, err
		}
		if value.IsZero(f.Type, c) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(f.JSONName())
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(jsonValue(c, mode))
		if err != nil {
			return nil, fmt.Errorf("jsonmap: field %s: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Unmarshal parses JSON text into a Value. Numbers are kept as json.Number
// so 64-bit values do not lose precision. A top-level null is the zero
// message.
func Unmarshal(msg *schema.Message, data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("jsonmap: decode %s: %w", msg.Name, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("jsonmap: decode %s: unexpected data after top-level value", msg.Name)
	}

	switch obj := doc.(type) {
	case nil:
		return value.CreateBase(msg), nil
	case map[string]any:
		return FromJSON(msg, obj)
	default:
		return nil, fmt.Errorf("jsonmap: decode %s: expected JSON object, got %T", msg.Name, doc)
	}
}
