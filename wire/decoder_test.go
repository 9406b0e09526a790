package wire

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/value"
)

func comprehensiveMessage() *schema.Message {
	return &schema.Message{
		Name: "ComprehensiveMessage",
		Fields: []*schema.Field{
			{Name: "test_int32", Number: 1, Type: schema.TypeInt32},
			{Name: "test_int64", Number: 2, Type: schema.TypeInt64},
			{Name: "test_uint32", Number: 3, Type: schema.TypeUint32},
			{Name: "test_uint64", Number: 4, Type: schema.TypeUint64},
			{Name: "test_bool", Number: 5, Type: schema.TypeBool},
			{Name: "test_float", Number: 6, Type: schema.TypeFloat},
			{Name: "test_double", Number: 7, Type: schema.TypeDouble},
			{Name: "test_string", Number: 8, Type: schema.TypeString},
			{Name: "test_bytes", Number: 9, Type: schema.TypeBytes},
			{Name: "test_sint32", Number: 10, Type: schema.TypeSint32},
			{Name: "test_sint64", Number: 11, Type: schema.TypeSint64},
			{Name: "test_fixed32", Number: 12, Type: schema.TypeFixed32},
			{Name: "test_fixed64", Number: 13, Type: schema.TypeFixed64},
			{Name: "test_sfixed32", Number: 14, Type: schema.TypeSfixed32},
			{Name: "test_sfixed64", Number: 15, Type: schema.TypeSfixed64},
		},
	}
}

func exampleMessage() *schema.Message {
	return &schema.Message{
		Name:     "ExampleMsg",
		FullName: "example.ExampleMsg",
		Fields:   []*schema.Field{{Name: "example_field", Number: 1, Type: schema.TypeString}},
	}
}

func otherMessage() *schema.Message {
	return &schema.Message{
		Name:     "OtherMsg",
		FullName: "example.other.OtherMsg",
		Fields:   []*schema.Field{{Name: "foo_field", Number: 1, Type: schema.TypeUint32}},
	}
}

func TestDecoder_AllTypes(t *testing.T) {
	msg := comprehensiveMessage()
	original := value.Value{
		"test_int32":    int32(-42),
		"test_int64":    int64(-9876543210),
		"test_uint32":   uint32(4000000000),
		"test_uint64":   uint64(math.MaxUint64),
		"test_bool":     true,
		"test_float":    float32(3.5),
		"test_double":   math.Pi,
		"test_string":   "hello, world",
		"test_bytes":    []byte{0x00, 0x01, 0xfe},
		"test_sint32":   int32(-12345),
		"test_sint64":   int64(math.MinInt64),
		"test_fixed32":  uint32(0xdeadbeef),
		"test_fixed64":  uint64(0xcafebabedeadbeef),
		"test_sfixed32": int32(math.MinInt32),
		"test_sfixed64": int64(-1),
	}

	data, err := EncodeMessage(original, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeMessage(data, msg, Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded, original)
	}

	again, err := EncodeMessage(decoded, msg)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoding is not byte identical:\n got  % x\n want % x", again, data)
	}
}

func TestDecoder_LiteralScenarios(t *testing.T) {
	v, err := DecodeMessage([]byte{0x0A, 0x05, 0x68, 0x65, 0x6C, 0x6C, 0x6F}, exampleMessage(), Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v["example_field"] != "hello" {
		t.Errorf("example_field = %#v, want hello", v["example_field"])
	}

	v, err = DecodeMessage([]byte{0x08, 0x01}, otherMessage(), Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v["foo_field"] != uint32(1) {
		t.Errorf("foo_field = %#v, want 1", v["foo_field"])
	}
}

func TestDecoder_EmptyInputIsZeroMessage(t *testing.T) {
	msg := comprehensiveMessage()
	v, err := DecodeMessage(nil, msg, Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(v, value.CreateBase(msg)) {
		t.Errorf("expected zero message, got %#v", v)
	}
}

func TestDecoder_UnknownFieldsAreSkipped(t *testing.T) {
	e := NewEncoder()
	e.EncodeTag(2, WireVarint)
	e.EncodeVarint(150)
	e.EncodeTag(3, WireFixed64)
	e.EncodeFixed64(7)
	e.EncodeTag(4, WireBytes)
	e.EncodeString("skip me")
	e.EncodeTag(5, WireFixed32)
	e.EncodeFixed32(9)
	e.EncodeTag(6, WireStartGroup)
	e.EncodeTag(1, WireVarint)
	e.EncodeVarint(1)
	e.EncodeTag(7, WireStartGroup)
	e.EncodeTag(7, WireEndGroup)
	e.EncodeTag(6, WireEndGroup)
	e.EncodeTag(1, WireBytes)
	e.EncodeString("kept")

	v, err := DecodeMessage(e.Bytes(), exampleMessage(), Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := value.Value{"example_field": "kept"}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v, want %#v", v, want)
	}
}

func TestDecoder_OutOfRangeFieldNumbersAreSkipped(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"field zero bytes", []byte{0x02, 0x00, 0x08, 0x01}},
		{"field zero fixed32", []byte{0x05, 0x01, 0x02, 0x03, 0x04, 0x08, 0x01}},
		{"field zero group", []byte{0x03, 0x08, 0x07, 0x04, 0x08, 0x01}},
		{"past max field number", []byte{0xf8, 0xff, 0xff, 0xff, 0x1f, 0x05, 0x08, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeMessage(tt.data, otherMessage(), Config{})
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if v["foo_field"] != uint32(1) {
				t.Errorf("foo_field = %#v, want 1", v["foo_field"])
			}
		})
	}
}

func TestDecoder_LastValueWins(t *testing.T) {
	data := []byte{0x08, 0x01, 0x08, 0x05}
	v, err := DecodeMessage(data, otherMessage(), Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if v["foo_field"] != uint32(5) {
		t.Errorf("foo_field = %#v, want 5", v["foo_field"])
	}
}

func TestDecoder_EarlyStop(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantPos int
	}{
		{"zero key", []byte{0x08, 0x03, 0x00, 0x08, 0x07}, 3},
		{"end group key", []byte{0x08, 0x03, 0x0c, 0x08, 0x07}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.data)
			v, err := d.DecodeShape(otherMessage(), -1)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if v["foo_field"] != uint32(3) {
				t.Errorf("foo_field = %#v, want 3", v["foo_field"])
			}
			if d.Pos() != tt.wantPos {
				t.Errorf("cursor at %d, want %d", d.Pos(), tt.wantPos)
			}
		})
	}
}

func TestDecoder_MismatchedWireType(t *testing.T) {
	// foo_field (uint32) sent as fixed32
	data := []byte{0x0d, 0x01, 0x00, 0x00, 0x00}

	v, err := DecodeMessage(data, otherMessage(), Config{})
	if err != nil {
		t.Fatalf("lenient decode failed: %v", err)
	}
	if v["foo_field"] != uint32(0) {
		t.Errorf("mismatched record should be skipped, got %#v", v["foo_field"])
	}

	_, err = DecodeMessage(data, otherMessage(), Config{StrictWireType: true})
	if !errors.Is(err, ErrWireTypeMismatch) {
		t.Fatalf("expected ErrWireTypeMismatch, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.FieldPath[0] != "foo_field" {
		t.Errorf("expected field path foo_field, got %v", err)
	}
}

func TestDecoder_PreserveUnknown(t *testing.T) {
	data := []byte{
		0x10, 0x96, 0x01, // field 2 varint 150
		0x0a, 0x02, 0x68, 0x69, // field 1 "hi"
		0x1d, 0x01, 0x02, 0x03, 0x04, // field 3 fixed32
	}
	msg := exampleMessage()

	v, err := DecodeMessage(data, msg, Config{PreserveUnknown: true})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	wantUnknown := []byte{0x10, 0x96, 0x01, 0x1d, 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(v.Unknown(), wantUnknown) {
		t.Fatalf("unknown bytes = % x, want % x", v.Unknown(), wantUnknown)
	}

	out, err := EncodeMessage(v, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	want := append([]byte{0x0a, 0x02, 0x68, 0x69}, wantUnknown...)
	if !bytes.Equal(out, want) {
		t.Errorf("re-encoded % x, want % x", out, want)
	}

	v, err = DecodeMessage(data, msg, Config{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := v[value.UnknownFieldsKey]; ok {
		t.Error("unknown bytes kept without PreserveUnknown")
	}
}

func TestDecoder_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated key", []byte{0x88}, ErrUnexpectedEOF},
		{"truncated varint value", []byte{0x08, 0x80}, ErrUnexpectedEOF},
		{"varint overflow", []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}, ErrVarintOverflow},
		{"length past end", []byte{0x0a, 0x05, 0x68}, ErrInvalidLength},
		{"huge length", []byte{0x0a, 0xff, 0xff, 0xff, 0xff, 0x0f}, ErrInvalidLength},
		{"truncated fixed32", []byte{0x1d, 0x01, 0x02}, ErrUnexpectedEOF},
		{"truncated fixed64", []byte{0x19, 0x01}, ErrUnexpectedEOF},
		{"wire type 6", []byte{0x0e}, ErrInvalidWireType},
		{"wire type 7", []byte{0x0f, 0x00}, ErrInvalidWireType},
		{"unterminated group", []byte{0x13, 0x08, 0x01}, ErrInvalidGroup},
		{"mismatched group", []byte{0x13, 0x24}, ErrInvalidGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeMessage(tt.data, exampleMessage(), Config{})
			if err == nil {
				t.Fatalf("expected error, got %#v", v)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("expected ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestDecoder_NeverPanics(t *testing.T) {
	msg := comprehensiveMessage()
	valid, err := EncodeMessage(value.Value{
		"test_int32": int32(-1), "test_string": "abc", "test_double": 1.5, "test_fixed32": uint32(7),
	}, msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for cut := 0; cut <= len(valid); cut++ {
		_, _ = DecodeMessage(valid[:cut], msg, Config{})
	}
	for i := range valid {
		corrupt := append([]byte(nil), valid...)
		corrupt[i] ^= 0xff
		_, _ = DecodeMessage(corrupt, msg, Config{StrictWireType: true, PreserveUnknown: true})
	}
}

func TestDecoder_DecodeShapeWithLength(t *testing.T) {
	// two OtherMsg bodies back to back, each two bytes long
	data := []byte{0x08, 0x01, 0x08, 0x02}
	d := NewDecoder(data)

	first, err := d.DecodeShape(otherMessage(), 2)
	if err != nil {
		t.Fatalf("first decode failed: %v", err)
	}
	second, err := d.DecodeShape(otherMessage(), 2)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if first["foo_field"] != uint32(1) || second["foo_field"] != uint32(2) {
		t.Errorf("got %v and %v", first, second)
	}
	if d.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining())
	}

	d.Reset(data)
	if _, err := d.DecodeShape(otherMessage(), 10); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

func TestDecoder_DecodeRaw(t *testing.T) {
	e := NewEncoder()
	e.EncodeTag(1, WireBytes)
	e.EncodeString("hi")
	e.EncodeTag(2, WireVarint)
	e.EncodeVarint(300)
	e.EncodeTag(3, WireFixed32)
	e.EncodeFixed32(1)

	fields, err := NewDecoder(e.Bytes()).DecodeRaw()
	if err != nil {
		t.Fatalf("DecodeRaw failed: %v", err)
	}
	want := []RawField{
		{Number: 1, WireType: WireBytes, Data: []byte("hi")},
		{Number: 2, WireType: WireVarint, Data: []byte{0xac, 0x02}},
		{Number: 3, WireType: WireFixed32, Data: []byte{0x01, 0x00, 0x00, 0x00}},
	}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("got %#v, want %#v", fields, want)
	}
}
