package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/anirudhraja/flatproto/schema"
)

var (
	// ErrNotFound is returned when no registered message matches a name.
	ErrNotFound = errors.New("message not found")
	// ErrUnsupportedShape is returned for constructs a flat message cannot
	// carry: nested message or enum fields, repeated, map, oneof and optional
	// fields, and proto2 files.
	ErrUnsupportedShape = errors.New("unsupported message shape")
	// ErrDuplicate is returned when a qualified name is registered twice.
	ErrDuplicate = errors.New("message already registered")
)

// Registry stores flat message shapes by qualified name. We look this up
// when a codec is built for a message. It is safe for concurrent use.
type Registry struct {
	// ProtoDirectories are searched, in order, for relative paths passed to
	// LoadSchema that do not exist as given.
	ProtoDirectories []string

	mu       sync.RWMutex
	messages map[string]*schema.Message // fully qualified name -> message
}

func NewRegistry(protoDirectories ...string) *Registry {
	return &Registry{
		ProtoDirectories: protoDirectories,
		messages:         make(map[string]*schema.Message),
	}
}

// LoadSchema loads every message of a .proto file, or of every .proto file
// below a directory. Nothing is registered unless all files load.
func (r *Registry) LoadSchema(protoPath string) error {
	resolved, err := r.findIfProtoExists(protoPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var files []string
	if !info.IsDir() {
		if !strings.HasSuffix(resolved, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", resolved)
		}
		files = append(files, resolved)
	} else {
		err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	var pending []*schema.Message
	for _, file := range files {
		msgs, err := loadProtoFile(file)
		if err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", file, err)
		}
		pending = append(pending, msgs...)
	}
	return r.registerAll(pending)
}

// findIfProtoExists returns protoPath when it exists, otherwise the first
// ProtoDirectories entry that contains it.
func (r *Registry) findIfProtoExists(protoPath string) (string, error) {
	_, err := os.Stat(protoPath)
	if err == nil {
		return protoPath, nil
	}
	if !filepath.IsAbs(protoPath) {
		for _, dir := range r.ProtoDirectories {
			full := filepath.Join(dir, protoPath)
			if _, statErr := os.Stat(full); statErr == nil {
				return full, nil
			}
		}
	}
	return "", fmt.Errorf("path does not exist: %w", err)
}

// Register validates msg and adds it under its qualified name.
func (r *Registry) Register(msg *schema.Message) error {
	return r.registerAll([]*schema.Message{msg})
}

func (r *Registry) registerAll(msgs []*schema.Message) error {
	seen := make(map[string]struct{}, len(msgs))
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
		name := msg.QualifiedName()
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		seen[name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = make(map[string]*schema.Message)
	}
	for name := range seen {
		if _, ok := r.messages[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
	}
	for _, msg := range msgs {
		r.messages[msg.QualifiedName()] = msg
	}
	return nil
}

// GetMessage retrieves a message by qualified name, or by a name that
// matches exactly one registered message after a dot ("OtherMsg",
// "other.OtherMsg").
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimPrefix(name, ".")
	if msg, ok := r.messages[name]; ok {
		return msg, nil
	}

	var matches []string
	for fullName := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			matches = append(matches, fullName)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case 1:
		return r.messages[matches[0]], nil
	default:
		slices.Sort(matches)
		return nil, fmt.Errorf("message name %s is ambiguous: %s", name, strings.Join(matches, ", "))
	}
}

// ListMessages returns all registered qualified names, sorted.
func (r *Registry) ListMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
