package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/anirudhraja/flatproto/schema"
)

const exampleProto = `syntax = "proto3";
package example;

message ExampleMsg {
  string example_field = 1;
}

message Outer {
  message Inner {
    sint64 delta = 2 [json_name = "d"];
  }
  bytes payload = 3;
  double ratio = 4;
}

enum Ignored {
  IGNORED_UNSPECIFIED = 0;
}
`

const otherProto = `syntax = "proto3";
package example.other;

import "example.proto";

message OtherMsg {
  uint32 foo_field = 1;
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry("a", "b")
	require.NotNil(t, registry)
	assert.Equal(t, []string{"a", "b"}, registry.ProtoDirectories)
	assert.Empty(t, registry.ListMessages())
}

func TestLoadSchema_NonExistentPath(t *testing.T) {
	err := NewRegistry().LoadSchema("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path does not exist")
}

func TestLoadSchema_NonProtoFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.txt", "hello")

	err := NewRegistry().LoadSchema(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a .proto file")
}

func TestLoadSchema_SingleProtoFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "example.proto", exampleProto)

	registry := NewRegistry()
	require.NoError(t, registry.LoadSchema(path))
	assert.Equal(t, []string{"example.ExampleMsg", "example.Outer", "example.Outer.Inner"}, registry.ListMessages())

	msg, err := registry.GetMessage("example.ExampleMsg")
	require.NoError(t, err)
	assert.Equal(t, "ExampleMsg", msg.Name)
	require.Len(t, msg.Fields, 1)
	assert.Equal(t, &schema.Field{Name: "example_field", Number: 1, Type: schema.TypeString}, msg.Fields[0])
	assert.Equal(t, "exampleField", msg.Fields[0].JSONName())

	outer, err := registry.GetMessage("Outer")
	require.NoError(t, err)
	require.Len(t, outer.Fields, 2)
	assert.Equal(t, int32(3), outer.Fields[0].Number)
	assert.Equal(t, schema.TypeDouble, outer.Fields[1].Type)

	inner, err := registry.GetMessage("Outer.Inner")
	require.NoError(t, err)
	assert.Equal(t, "Inner", inner.Name)
	assert.Equal(t, "d", inner.Fields[0].JSONName())
}

func TestLoadSchema_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "example.proto", exampleProto)
	writeFile(t, dir, "other/other.proto", otherProto)
	writeFile(t, dir, "README.md", "not a proto")

	registry := NewRegistry()
	require.NoError(t, registry.LoadSchema(dir))

	msg, err := registry.GetMessage("OtherMsg")
	require.NoError(t, err)
	assert.Equal(t, "example.other.OtherMsg", msg.FullName)
	assert.Equal(t, schema.TypeUint32, msg.Fields[0].Type)
}

func TestLoadSchema_ProtoDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "other/other.proto", otherProto)

	registry := NewRegistry(t.TempDir(), dir)
	require.NoError(t, registry.LoadSchema("other/other.proto"))
	_, err := registry.GetMessage("example.other.OtherMsg")
	assert.NoError(t, err)
}

func TestLoadSchema_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		proto string
	}{
		{"repeated", `syntax = "proto3"; message M { repeated int32 xs = 1; }`},
		{"map", `syntax = "proto3"; message M { map<string, int32> m = 1; }`},
		{"oneof", `syntax = "proto3"; message M { oneof o { int32 a = 1; } }`},
		{"optional", `syntax = "proto3"; message M { optional int32 a = 1; }`},
		{"message field", `syntax = "proto3"; message A {} message M { A a = 1; }`},
		{"enum field", `syntax = "proto3"; enum E { Z = 0; } message M { E e = 1; }`},
		{"proto2", `syntax = "proto2"; message M { required int32 a = 1; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProto(strings.NewReader(tt.proto), "m.proto")
			assert.ErrorIs(t, err, ErrUnsupportedShape)
		})
	}
}

func TestLoadSchema_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.proto", `syntax = "proto3"; message Good { int32 a = 1; }`)
	writeFile(t, dir, "b.proto", `syntax = "proto3"; message Bad { repeated int32 a = 1; }`)

	registry := NewRegistry()
	err := registry.LoadSchema(dir)
	require.ErrorIs(t, err, ErrUnsupportedShape)
	assert.Empty(t, registry.ListMessages())
}

func TestLoadSchema_InvalidShape(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dup.proto", `syntax = "proto3"; message Dup { int32 a = 1; string b = 1; }`)

	err := NewRegistry().LoadSchema(path)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Dup", ve.Message)
}

func TestGetMessage(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&schema.Message{Name: "Msg", FullName: "a.Msg"}))
	require.NoError(t, registry.Register(&schema.Message{Name: "Msg", FullName: "b.Msg"}))
	require.NoError(t, registry.Register(&schema.Message{Name: "Solo"}))

	msg, err := registry.GetMessage(".a.Msg")
	require.NoError(t, err)
	assert.Equal(t, "a.Msg", msg.FullName)

	msg, err = registry.GetMessage("Solo")
	require.NoError(t, err)
	assert.Equal(t, "Solo", msg.Name)

	_, err = registry.GetMessage("Msg")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = registry.GetMessage("Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = registry.Register(&schema.Message{Name: "Msg", FullName: "a.Msg"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLoadShapes(t *testing.T) {
	const shapes = `package: example
messages:
  - name: ExampleMsg
    fields:
      - {name: example_field, number: 1, type: string}
---
package: example.other
messages:
  - name: OtherMsg
    fields:
      - name: foo_field
        number: 1
        type: uint32
        json_name: foo
`
	registry := NewRegistry()
	require.NoError(t, registry.LoadShapes(strings.NewReader(shapes)))
	assert.Equal(t, []string{"example.ExampleMsg", "example.other.OtherMsg"}, registry.ListMessages())

	other, err := registry.GetMessage("OtherMsg")
	require.NoError(t, err)
	assert.Equal(t, "foo", other.Fields[0].JSONName())

	err = NewRegistry().LoadShapes(strings.NewReader("messages:\n  - name: M\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")

	err = NewRegistry().LoadShapes(strings.NewReader("messages:\n  - name: M\n    fields:\n      - {name: a, number: 1, type: Foo}\n"))
	var ve *schema.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoadShapesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shapes.yaml", "messages:\n  - name: M\n    fields:\n      - {name: a, number: 1, type: bool}\n")

	registry := NewRegistry()
	require.NoError(t, registry.LoadShapesFile(path))
	assert.Equal(t, []string{"M"}, registry.ListMessages())

	assert.Error(t, registry.LoadShapesFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestRegisterDescriptor(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterDescriptor((&timestamppb.Timestamp{}).ProtoReflect().Descriptor()))
	require.NoError(t, registry.RegisterDescriptor((&wrapperspb.BytesValue{}).ProtoReflect().Descriptor()))

	ts, err := registry.GetMessage("google.protobuf.Timestamp")
	require.NoError(t, err)
	require.Len(t, ts.Fields, 2)
	assert.Equal(t, "seconds", ts.Fields[0].Name)
	assert.Equal(t, schema.TypeInt64, ts.Fields[0].Type)
	assert.Equal(t, schema.TypeInt32, ts.Fields[1].Type)

	bv, err := registry.GetMessage("BytesValue")
	require.NoError(t, err)
	assert.Equal(t, schema.TypeBytes, bv.Fields[0].Type)

	err = registry.RegisterDescriptor((&structpb.Struct{}).ProtoReflect().Descriptor())
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	err = registry.RegisterDescriptor((&structpb.ListValue{}).ProtoReflect().Descriptor())
	assert.ErrorIs(t, err, ErrUnsupportedShape)
	err = registry.RegisterDescriptor((&structpb.Value{}).ProtoReflect().Descriptor())
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}
