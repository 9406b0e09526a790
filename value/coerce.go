package value

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/anirudhraja/flatproto/schema"
)

// ErrTypeCoercion matches every *TypeCoercionError.
var ErrTypeCoercion = errors.New("type coercion failed")

// TypeCoercionError reports a value that cannot be converted to a field's type.
type TypeCoercionError struct {
	Field string
	Type  schema.PrimitiveType
	Value any
	Err   error
}

func (e *TypeCoercionError) Error() string {
	var sb strings.Builder
	if e.Field != "" {
		fmt.Fprintf(&sb, "field %s: ", e.Field)
	}
	fmt.Fprintf(&sb, "cannot coerce %T to %s", e.Value, e.Type)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *TypeCoercionError) Unwrap() error { return e.Err }

// Is implements errors.Is for ErrTypeCoercion.
func (e *TypeCoercionError) Is(target error) bool {
	return target == ErrTypeCoercion
}

func withField(err error, field string) error {
	var ce *TypeCoercionError
	if errors.As(err, &ce) && ce.Field == "" {
		cp := *ce
		cp.Field = field
		return &cp
	}
	return err
}

type coerceFunc func(v any) (any, error)

// coercers is the per-kind coercion table used by FromJSON, FromPartial and
// the encoder when a Value holds a non-canonical Go type.
var coercers = map[schema.PrimitiveType]coerceFunc{
	schema.TypeDouble:   coerceDouble,
	schema.TypeFloat:    coerceFloat,
	schema.TypeInt32:    coerceInt32,
	schema.TypeSint32:   coerceInt32,
	schema.TypeSfixed32: coerceInt32,
	schema.TypeInt64:    coerceInt64,
	schema.TypeSint64:   coerceInt64,
	schema.TypeSfixed64: coerceInt64,
	schema.TypeUint32:   coerceUint32,
	schema.TypeFixed32:  coerceUint32,
	schema.TypeUint64:   coerceUint64,
	schema.TypeFixed64:  coerceUint64,
	schema.TypeBool:     coerceBool,
	schema.TypeString:   coerceString,
	schema.TypeBytes:    coerceBytes,
}

// Coerce converts v to the canonical Go type of t. A nil v yields the zero
// value. Byte slices are always copied.
func Coerce(t schema.PrimitiveType, v any) (any, error) {
	fn, ok := coercers[t]
	if !ok {
		return nil, &TypeCoercionError{Type: t, Value: v, Err: errors.New("unknown type")}
	}
	if v == nil {
		return Zero(t), nil
	}
	out, err := fn(normalize(v))
	if err != nil {
		return nil, &TypeCoercionError{Type: t, Value: v, Err: err}
	}
	return out, nil
}

// CoerceField is Coerce for field f, reporting failures against its name.
func CoerceField(f *schema.Field, v any) (any, error) {
	c, err := Coerce(f.Type, v)
	if err != nil {
		return nil, withField(err, f.Name)
	}
	return c, nil
}

// Canonical returns v unchanged when it already holds the canonical Go type
// of t and falls back to Coerce otherwise. Unlike Coerce it does not copy
// byte slices.
func Canonical(t schema.PrimitiveType, v any) (any, error) {
	switch v.(type) {
	case float64:
		if t == schema.TypeDouble {
			return v, nil
		}
	case float32:
		if t == schema.TypeFloat {
			return v, nil
		}
	case int64:
		if t == schema.TypeInt64 || t == schema.TypeSint64 || t == schema.TypeSfixed64 {
			return v, nil
		}
	case int32:
		if t == schema.TypeInt32 || t == schema.TypeSint32 || t == schema.TypeSfixed32 {
			return v, nil
		}
	case uint64:
		if t == schema.TypeUint64 || t == schema.TypeFixed64 {
			return v, nil
		}
	case uint32:
		if t == schema.TypeUint32 || t == schema.TypeFixed32 {
			return v, nil
		}
	case bool:
		if t == schema.TypeBool {
			return v, nil
		}
	case string:
		if t == schema.TypeString {
			return v, nil
		}
	case []byte:
		if t == schema.TypeBytes {
			return v, nil
		}
	}
	return Coerce(t, v)
}

// normalize maps named types onto their underlying basic type.
func normalize(v any) any {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, string, []byte, json.Number:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes()
		}
	}
	return v
}

var errNotNumeric = errors.New("not a numeric value")

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, errors.New("value overflows int64")
		}
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, errors.New("value overflows int64")
		}
		return int64(t), nil
	case float32:
		return floatToInt64(float64(t))
	case float64:
		return floatToInt64(t)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseInt64(string(t))
	case string:
		return parseInt64(t)
	default:
		return 0, errNotNumeric
	}
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		return iv, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return floatToInt64(f)
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v for integer field", f)
	}
	r := math.Round(f)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(r), nil
}

func toUint64(v any) (uint64, error) {
	switch t := v.(type) {
	case uint:
		return uint64(t), nil
	case uint8:
		return uint64(t), nil
	case uint16:
		return uint64(t), nil
	case uint32:
		return uint64(t), nil
	case uint64:
		return t, nil
	case int, int8, int16, int32, int64:
		iv, _ := toInt64(t)
		if iv < 0 {
			return 0, fmt.Errorf("negative value %d for unsigned field", iv)
		}
		return uint64(iv), nil
	case float32:
		return floatToUint64(float64(t))
	case float64:
		return floatToUint64(t)
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseUint64(string(t))
	case string:
		return parseUint64(t)
	default:
		return 0, errNotNumeric
	}
}

func parseUint64(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if uv, err := strconv.ParseUint(s, 10, 64); err == nil {
		return uv, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return floatToUint64(f)
}

func floatToUint64(f float64) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v for integer field", f)
	}
	r := math.Round(f)
	if r < 0 {
		return 0, fmt.Errorf("negative value %v for unsigned field", f)
	}
	if r >= math.MaxUint64 {
		return 0, fmt.Errorf("value %v overflows uint64", f)
	}
	return uint64(r), nil
}

func toFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int, int8, int16, int32, int64:
		iv, _ := toInt64(t)
		return float64(iv), nil
	case uint, uint8, uint16, uint32, uint64:
		uv, _ := toUint64(t)
		return float64(uv), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseFloat64(string(t))
	case string:
		return parseFloat64(t)
	default:
		return 0, errNotNumeric
	}
}

// parseFloat64 accepts decimal forms plus "NaN", "Infinity" and "-Infinity".
func parseFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return f, nil
}

func coerceInt32(v any) (any, error) {
	iv, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	if iv < math.MinInt32 || iv > math.MaxInt32 {
		return nil, fmt.Errorf("value %d overflows int32", iv)
	}
	return int32(iv), nil
}

func coerceInt64(v any) (any, error) {
	return toInt64(v)
}

func coerceUint32(v any) (any, error) {
	uv, err := toUint64(v)
	if err != nil {
		return nil, err
	}
	if uv > math.MaxUint32 {
		return nil, fmt.Errorf("value %d overflows uint32", uv)
	}
	return uint32(uv), nil
}

func coerceUint64(v any) (any, error) {
	return toUint64(v)
}

func coerceDouble(v any) (any, error) {
	return toFloat64(v)
}

func coerceFloat(v any) (any, error) {
	if f, ok := v.(float32); ok {
		return f, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	if !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return nil, fmt.Errorf("value %v overflows float", f)
	}
	return float32(f), nil
}

func coerceBool(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	case []byte:
		return nil, errors.New("bytes are not a boolean")
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	return f != 0, nil
}

func coerceString(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case json.Number:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float32:
		return formatFloat(float64(t), 32), nil
	case float64:
		return formatFloat(t, 64), nil
	case int, int8, int16, int32, int64:
		iv, _ := toInt64(t)
		return strconv.FormatInt(iv, 10), nil
	case uint, uint8, uint16, uint32, uint64:
		uv, _ := toUint64(t)
		return strconv.FormatUint(uv, 10), nil
	default:
		return nil, errors.New("not a scalar value")
	}
}

// formatFloat renders whole numbers without an exponent below 1e21 and uses
// the shortest representation otherwise.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	default:
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

func coerceBytes(v any) (any, error) {
	switch t := v.(type) {
	case []byte:
		return append([]byte{}, t...), nil
	case string:
		var lastErr error
		for _, enc := range base64Encodings {
			b, err := enc.DecodeString(t)
			if err == nil {
				return b, nil
			}
			lastErr = err
		}
		return nil, fmt.Errorf("invalid base64: %w", lastErr)
	default:
		return nil, errors.New("bytes must be []byte or a base64 string")
	}
}
