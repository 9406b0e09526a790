package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/flatproto/schema"
)

// LoadProto parses proto3 source from r and registers its messages.
func (r *Registry) LoadProto(in io.Reader, filename string) error {
	msgs, err := ParseProto(in, filename)
	if err != nil {
		return fmt.Errorf("failed to load proto file %s: %w", filename, err)
	}
	return r.registerAll(msgs)
}

func loadProtoFile(path string) ([]*schema.Message, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseProto(bytes.NewReader(content), filepath.Base(path))
}

// ParseProto parses proto3 source and returns its messages, nested ones
// included, as flat shapes. Imports, enums, services and options are
// ignored; any field that is not a singular scalar fails with
// ErrUnsupportedShape.
func ParseProto(r io.Reader, filename string) ([]*schema.Message, error) {
	parsedBody, err := protoparser.Parse(r, protoparser.WithFilename(filename))
	if err != nil {
		return nil, err
	}

	syntax := "proto2"
	if parsedBody.Syntax != nil {
		syntax = parsedBody.Syntax.ProtobufVersion
	}
	if syntax != "proto3" {
		return nil, fmt.Errorf("%w: %s uses %s syntax", ErrUnsupportedShape, filename, syntax)
	}

	var pkg string
	for _, body := range parsedBody.ProtoBody {
		if b, ok := body.(*protoparserparser.Package); ok {
			pkg = b.Name
		}
	}

	var out []*schema.Message
	for _, body := range parsedBody.ProtoBody {
		if b, ok := body.(*protoparserparser.Message); ok {
			msgs, err := buildMessage(pkg, b)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
	}
	return out, nil
}

// buildMessage converts m and the messages nested in it. prefix is the
// package, or the enclosing message's full name.
func buildMessage(prefix string, m *protoparserparser.Message) ([]*schema.Message, error) {
	msg := &schema.Message{
		Name:     m.MessageName,
		FullName: getFullName(prefix, m.MessageName),
	}
	out := []*schema.Message{msg}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			f, err := buildField(msg.FullName, b)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, f)
		case *protoparserparser.Message:
			nested, err := buildMessage(msg.FullName, b)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case *protoparserparser.MapField:
			return nil, unsupported(msg.FullName, b.MapName, "map field")
		case *protoparserparser.Oneof:
			return nil, unsupported(msg.FullName, b.OneofName, "oneof")
		}
	}
	return out, nil
}

func buildField(msgName string, pf *protoparserparser.Field) (*schema.Field, error) {
	switch {
	case pf.IsRepeated:
		return nil, unsupported(msgName, pf.FieldName, "repeated field")
	case pf.IsOptional:
		return nil, unsupported(msgName, pf.FieldName, "optional field")
	case pf.IsRequired:
		return nil, unsupported(msgName, pf.FieldName, "required field")
	}

	t := schema.PrimitiveType(pf.Type)
	if !schema.IsPrimitive(t) {
		return nil, unsupported(msgName, pf.FieldName, fmt.Sprintf("field type %s is not a scalar", pf.Type))
	}
	num, err := strconv.ParseInt(pf.FieldNumber, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("message %s field %s: invalid field number %q: %w", msgName, pf.FieldName, pf.FieldNumber, err)
	}

	f := &schema.Field{Name: pf.FieldName, Number: int32(num), Type: t}
	for _, opt := range pf.FieldOptions {
		if opt.OptionName == "json_name" {
			f.JsonName = unquote(opt.Constant)
		}
	}
	return f, nil
}

func unsupported(msgName, fieldName, what string) error {
	return fmt.Errorf("%w: message %s field %s: %s", ErrUnsupportedShape, msgName, fieldName, what)
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}
