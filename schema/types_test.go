package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestToLowerCamel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"example_field", "exampleField"},
		{"foo_field", "fooField"},
		{"Name", "name"},
		{"already", "already"},
		{"a_b_c", "aBC"},
		{"field_1", "field1"},
		{"_leading", "leading"},
	}
	for _, tt := range tests {
		if got := ToLowerCamel(tt.in); got != tt.want {
			t.Errorf("ToLowerCamel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestField_JSONName(t *testing.T) {
	f := &Field{Name: "example_field"}
	if got := f.JSONName(); got != "exampleField" {
		t.Errorf("expected derived JSON name exampleField, got %q", got)
	}
	f.JsonName = "custom"
	if got := f.JSONName(); got != "custom" {
		t.Errorf("expected configured JSON name custom, got %q", got)
	}
}

func TestMessage_Lookup(t *testing.T) {
	msg := &Message{
		Name: "Lookup",
		Fields: []*Field{
			{Name: "foo_field", Number: 1, Type: TypeUint32},
			{Name: "bar", Number: 7, Type: TypeString},
		},
	}

	if f := msg.FieldByNumber(7); f == nil || f.Name != "bar" {
		t.Errorf("FieldByNumber(7) = %+v", f)
	}
	if f := msg.FieldByNumber(2); f != nil {
		t.Errorf("FieldByNumber(2) should be nil, got %+v", f)
	}
	if f := msg.FieldByName("foo_field"); f == nil || f.Number != 1 {
		t.Errorf("FieldByName(foo_field) = %+v", f)
	}
	if f := msg.FieldByName("fooField"); f == nil || f.Number != 1 {
		t.Errorf("FieldByName(fooField) = %+v", f)
	}
	if f := msg.FieldByName("missing"); f != nil {
		t.Errorf("FieldByName(missing) should be nil, got %+v", f)
	}
}

func TestMessage_QualifiedName(t *testing.T) {
	msg := &Message{Name: "OtherMsg"}
	if msg.QualifiedName() != "OtherMsg" {
		t.Errorf("unexpected qualified name %q", msg.QualifiedName())
	}
	msg.FullName = "example.other.OtherMsg"
	if msg.QualifiedName() != "example.other.OtherMsg" {
		t.Errorf("unexpected qualified name %q", msg.QualifiedName())
	}
}

func TestPrimitiveType_Classes(t *testing.T) {
	if !TypeSint64.IsInteger() || !TypeSint64.Is64Bit() || TypeSint64.IsUnsigned() {
		t.Error("sint64 classification is wrong")
	}
	if !TypeFixed32.IsInteger() || TypeFixed32.Is64Bit() || !TypeFixed32.IsUnsigned() {
		t.Error("fixed32 classification is wrong")
	}
	if TypeDouble.IsInteger() || TypeString.IsInteger() || TypeBool.IsInteger() {
		t.Error("non-integer types classified as integers")
	}
	if IsPrimitive("message") || !IsPrimitive(TypeBytes) {
		t.Error("IsPrimitive is wrong")
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr string
	}{
		{
			name: "valid",
			msg: &Message{Name: "Ok", Fields: []*Field{
				{Name: "a", Number: 1, Type: TypeString},
				{Name: "b", Number: MaxFieldNumber, Type: TypeBytes},
			}},
		},
		{
			name: "empty message is valid",
			msg:  &Message{Name: "Empty"},
		},
		{
			name:    "nil message",
			msg:     nil,
			wantErr: "nil message",
		},
		{
			name:    "missing name",
			msg:     &Message{},
			wantErr: "empty message name",
		},
		{
			name: "duplicate number",
			msg: &Message{Name: "Dup", Fields: []*Field{
				{Name: "a", Number: 1, Type: TypeString},
				{Name: "b", Number: 1, Type: TypeUint32},
			}},
			wantErr: "already used by",
		},
		{
			name: "duplicate name",
			msg: &Message{Name: "Dup", Fields: []*Field{
				{Name: "a", Number: 1, Type: TypeString},
				{Name: "a", Number: 2, Type: TypeUint32},
			}},
			wantErr: "duplicate field name",
		},
		{
			name: "duplicate JSON name",
			msg: &Message{Name: "Dup", Fields: []*Field{
				{Name: "foo_bar", Number: 1, Type: TypeString},
				{Name: "fooBar", Number: 2, Type: TypeUint32},
			}},
			wantErr: "JSON name",
		},
		{
			name: "zero number",
			msg: &Message{Name: "Bad", Fields: []*Field{
				{Name: "a", Number: 0, Type: TypeString},
			}},
			wantErr: "out of range",
		},
		{
			name: "number too large",
			msg: &Message{Name: "Bad", Fields: []*Field{
				{Name: "a", Number: MaxFieldNumber + 1, Type: TypeString},
			}},
			wantErr: "out of range",
		},
		{
			name: "unknown type",
			msg: &Message{Name: "Bad", Fields: []*Field{
				{Name: "a", Number: 1, Type: "example.OtherMsg"},
			}},
			wantErr: "unsupported type",
		},
		{
			name: "reserved name",
			msg: &Message{Name: "Bad", Fields: []*Field{
				{Name: "a", Number: 1, Type: TypeString},
				{Name: ReservedFieldName, Number: 2, Type: TypeBytes},
			}},
			wantErr: "reserved field name",
		},
		{
			name: "nil field",
			msg:  &Message{Name: "Bad", Fields: []*Field{nil}},
			wantErr: "nil field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
