package registry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/flatproto/schema"
)

// ShapeFile is the YAML form of a set of flat messages. A file may hold
// several documents.
//
//	package: example
//	messages:
//	  - name: ExampleMsg
//	    fields:
//	      - {name: example_field, number: 1, type: string}
type ShapeFile struct {
	Package  string            `yaml:"package,omitempty"`
	Messages []*schema.Message `yaml:"messages"`
}

// LoadShapes reads YAML shape documents from r and registers their
// messages. Unknown keys are rejected. Nothing is registered unless every
// document parses and validates.
func (r *Registry) LoadShapes(in io.Reader) error {
	msgs, err := ParseShapes(in)
	if err != nil {
		return err
	}
	return r.registerAll(msgs)
}

// LoadShapesFile is LoadShapes on the named file.
func (r *Registry) LoadShapesFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	defer f.Close()
	if err := r.LoadShapes(f); err != nil {
		return fmt.Errorf("failed to load shape file %s: %w", path, err)
	}
	return nil
}

// ParseShapes decodes YAML shape documents without registering them.
func ParseShapes(in io.Reader) ([]*schema.Message, error) {
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)

	var out []*schema.Message
	for {
		var doc ShapeFile
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode shapes: %w", err)
		}
		for _, msg := range doc.Messages {
			if msg == nil {
				continue
			}
			if msg.FullName == "" {
				msg.FullName = getFullName(doc.Package, msg.Name)
			}
			out = append(out, msg)
		}
	}
	return out, nil
}
