package registry

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/flatproto/schema"
)

var kindTypes = map[protoreflect.Kind]schema.PrimitiveType{
	protoreflect.DoubleKind:   schema.TypeDouble,
	protoreflect.FloatKind:    schema.TypeFloat,
	protoreflect.Int64Kind:    schema.TypeInt64,
	protoreflect.Uint64Kind:   schema.TypeUint64,
	protoreflect.Int32Kind:    schema.TypeInt32,
	protoreflect.Fixed64Kind:  schema.TypeFixed64,
	protoreflect.Fixed32Kind:  schema.TypeFixed32,
	protoreflect.BoolKind:     schema.TypeBool,
	protoreflect.StringKind:   schema.TypeString,
	protoreflect.BytesKind:    schema.TypeBytes,
	protoreflect.Uint32Kind:   schema.TypeUint32,
	protoreflect.Sfixed32Kind: schema.TypeSfixed32,
	protoreflect.Sfixed64Kind: schema.TypeSfixed64,
	protoreflect.Sint32Kind:   schema.TypeSint32,
	protoreflect.Sint64Kind:   schema.TypeSint64,
}

// FromDescriptor converts a compiled proto3 message descriptor into a flat
// shape.
func FromDescriptor(md protoreflect.MessageDescriptor) (*schema.Message, error) {
	name := string(md.FullName())
	if md.Syntax() != protoreflect.Proto3 {
		return nil, fmt.Errorf("%w: %s uses %s syntax", ErrUnsupportedShape, name, md.Syntax())
	}
	if md.IsMapEntry() {
		return nil, fmt.Errorf("%w: %s is a map entry", ErrUnsupportedShape, name)
	}

	msg := &schema.Message{Name: string(md.Name()), FullName: name}
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		fieldName := string(fd.Name())
		switch {
		case fd.IsMap():
			return nil, unsupported(name, fieldName, "map field")
		case fd.IsList():
			return nil, unsupported(name, fieldName, "repeated field")
		case fd.ContainingOneof() != nil:
			if fd.ContainingOneof().IsSynthetic() {
				return nil, unsupported(name, fieldName, "optional field")
			}
			return nil, unsupported(name, fieldName, "oneof")
		}
		t, ok := kindTypes[fd.Kind()]
		if !ok {
			return nil, unsupported(name, fieldName, fmt.Sprintf("field type %s is not a scalar", fd.Kind()))
		}

		f := &schema.Field{Name: fieldName, Number: int32(fd.Number()), Type: t}
		if fd.HasJSONName() {
			f.JsonName = fd.JSONName()
		}
		msg.Fields = append(msg.Fields, f)
	}
	return msg, nil
}

// RegisterDescriptor converts md with FromDescriptor and registers it.
func (r *Registry) RegisterDescriptor(md protoreflect.MessageDescriptor) error {
	msg, err := FromDescriptor(md)
	if err != nil {
		return err
	}
	return r.Register(msg)
}
