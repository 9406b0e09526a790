// Package flatproto encodes and decodes flat protobuf messages (messages
// whose fields are all singular proto3 scalars) without generated code.
//
// A message shape is loaded from a .proto file, a YAML shape file or a
// compiled descriptor, or built by hand as a *schema.Message. A Codec bound
// to a shape converts message values to and from the binary wire format,
// the protobuf JSON form and streams of either:
//
//	p, _ := flatproto.New()
//	_ = p.LoadSchema("example.proto")
//	c, _ := p.Codec("example.ExampleMsg")
//	b, _ := c.Encode(value.Value{"example_field": "hello"}) // 0a 05 68 65 6c 6c 6f
package flatproto

import (
	"io"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/anirudhraja/flatproto/registry"
	"github.com/anirudhraja/flatproto/schema"
)

// Flatproto provides schema-aware codecs backed by a shape registry. It is
// safe for concurrent use.
type Flatproto struct {
	registry *registry.Registry
	opts     *options

	mu     sync.Mutex
	codecs map[string]*Codec // qualified name -> codec
}

// New creates a Flatproto. Codecs it hands out share its options.
func New(opts ...Option) (*Flatproto, error) {
	o, err := setup(opts)
	if err != nil {
		return nil, err
	}
	return &Flatproto{
		registry: registry.NewRegistry(o.protoDirs...),
		opts:     o,
		codecs:   make(map[string]*Codec),
	}, nil
}

// LoadSchema loads the messages of a .proto file or directory.
func (p *Flatproto) LoadSchema(path string) error {
	if err := p.registry.LoadSchema(path); err != nil {
		return err
	}
	p.opts.logger.Debug().Str("path", path).Msg("proto schema loaded")
	return nil
}

// LoadProto loads the messages of proto3 source read from r.
func (p *Flatproto) LoadProto(r io.Reader, filename string) error {
	return p.registry.LoadProto(r, filename)
}

// LoadShapes loads YAML shape documents.
func (p *Flatproto) LoadShapes(r io.Reader) error {
	return p.registry.LoadShapes(r)
}

// LoadShapesFile loads a YAML shape file.
func (p *Flatproto) LoadShapesFile(path string) error {
	if err := p.registry.LoadShapesFile(path); err != nil {
		return err
	}
	p.opts.logger.Debug().Str("path", path).Msg("shape file loaded")
	return nil
}

// Register adds a hand-built shape.
func (p *Flatproto) Register(msg *schema.Message) error {
	return p.registry.Register(msg)
}

// RegisterDescriptor adds the shape of a compiled message descriptor.
func (p *Flatproto) RegisterDescriptor(md protoreflect.MessageDescriptor) error {
	return p.registry.RegisterDescriptor(md)
}

// Codec returns the codec of a registered message. name may be qualified or
// any unambiguous suffix of the qualified name.
func (p *Flatproto) Codec(name string) (*Codec, error) {
	msg, err := p.registry.GetMessage(name)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.codecs[msg.QualifiedName()]; ok {
		return c, nil
	}
	c := newCodec(msg, p.opts)
	p.codecs[msg.QualifiedName()] = c
	return c, nil
}

func (p *Flatproto) GetRegistry() *registry.Registry { return p.registry }
func (p *Flatproto) ListMessages() []string          { return p.registry.ListMessages() }
