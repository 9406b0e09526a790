package schema

// MaxFieldNumber is the largest field number the wire format can carry.
const MaxFieldNumber = 1<<29 - 1

// ReservedFieldName is kept for values' preserved unknown bytes and cannot
// name a field.
const ReservedFieldName = "__unknown"

// Message represents a flat protobuf message definition: an ordered list of
// scalar fields. A Message must not be modified once it has been registered.
type Message struct {
	Name     string   `json:"name" yaml:"name"`                               // "ExampleMsg"
	FullName string   `json:"full_name,omitempty" yaml:"full_name,omitempty"` // "example.ExampleMsg"
	Fields   []*Field `json:"fields" yaml:"fields"`                           // message fields, in encode order
}

// Field represents a scalar message field
type Field struct {
	Name     string        `json:"name" yaml:"name"`                               // "example_field"
	Number   int32         `json:"number" yaml:"number"`                           // 1
	Type     PrimitiveType `json:"type" yaml:"type"`                               // "string"
	JsonName string        `json:"json_name,omitempty" yaml:"json_name,omitempty"` // JSON field name, derived when empty
}

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitiveTypes = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeString:   {},
	TypeBytes:    {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPrimitive reports whether t names one of the proto3 scalar types.
func IsPrimitive(t PrimitiveType) bool {
	_, ok := primitiveTypes[t]
	return ok
}

// IsInteger reports whether values of t are whole numbers.
func (t PrimitiveType) IsInteger() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeUint32, TypeUint64, TypeSint32, TypeSint64,
		TypeFixed32, TypeFixed64, TypeSfixed32, TypeSfixed64:
		return true
	}
	return false
}

// Is64Bit reports whether t is a 64-bit integer type.
func (t PrimitiveType) Is64Bit() bool {
	switch t {
	case TypeInt64, TypeUint64, TypeSint64, TypeFixed64, TypeSfixed64:
		return true
	}
	return false
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t PrimitiveType) IsUnsigned() bool {
	switch t {
	case TypeUint32, TypeUint64, TypeFixed32, TypeFixed64:
		return true
	}
	return false
}

// JSONName returns the JSON key of the field.
func (f *Field) JSONName() string {
	if f.JsonName != "" {
		return f.JsonName
	}
	return ToLowerCamel(f.Name)
}

// QualifiedName returns FullName when set, Name otherwise.
func (m *Message) QualifiedName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Name
}

// FieldByNumber finds a field by its number.
func (m *Message) FieldByNumber(n int32) *Field {
	for _, f := range m.Fields {
		if f.Number == n {
			return f
		}
	}
	return nil
}

// FieldByName finds a field by its proto name or JSON name.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, f := range m.Fields {
		if f.JSONName() == name {
			return f
		}
	}
	return nil
}
