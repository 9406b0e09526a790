// Package example holds the two sample shapes, ExampleMsg and OtherMsg,
// their codecs and the .proto sources they are declared in.
package example

import (
	"embed"
	"io/fs"

	"github.com/anirudhraja/flatproto"
	"github.com/anirudhraja/flatproto/schema"
)

//go:embed proto
var Protos embed.FS

var (
	ExampleMsgShape = &schema.Message{
		Name:     "ExampleMsg",
		FullName: "example.ExampleMsg",
		Fields: []*schema.Field{
			{Name: "example_field", Number: 1, Type: schema.TypeString},
		},
	}
	OtherMsgShape = &schema.Message{
		Name:     "OtherMsg",
		FullName: "example.other.OtherMsg",
		Fields: []*schema.Field{
			{Name: "foo_field", Number: 1, Type: schema.TypeUint32},
		},
	}
)

var (
	ExampleMsg = flatproto.MustCodec(ExampleMsgShape)
	OtherMsg   = flatproto.MustCodec(OtherMsgShape)
)

// Load registers the shapes declared in the embedded .proto files with p.
func Load(p *flatproto.Flatproto) error {
	return fs.WalkDir(Protos, "proto", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := Protos.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return p.LoadProto(f, path)
	})
}
