package schema

import "fmt"

// ValidationError describes why a message shape was rejected.
type ValidationError struct {
	Message string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: message %q: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("schema: message %q field %q: %s", e.Message, e.Field, e.Reason)
}

// Validate checks the invariants of a flat message shape: a name, known
// scalar types, field numbers in range, and unique numbers and names.
func (m *Message) Validate() error {
	if m == nil {
		return &ValidationError{Reason: "nil message"}
	}
	if m.Name == "" {
		return &ValidationError{Reason: "empty message name"}
	}

	numbers := make(map[int32]string, len(m.Fields))
	names := make(map[string]struct{}, len(m.Fields))
	jsonNames := make(map[string]string, len(m.Fields))
	for i, f := range m.Fields {
		if f == nil {
			return &ValidationError{Message: m.Name, Reason: fmt.Sprintf("nil field at index %d", i)}
		}
		if f.Name == "" {
			return &ValidationError{Message: m.Name, Reason: fmt.Sprintf("empty field name at index %d", i)}
		}
		if f.Name == ReservedFieldName {
			return &ValidationError{Message: m.Name, Field: f.Name, Reason: "reserved field name"}
		}
		if f.Number < 1 || f.Number > MaxFieldNumber {
			return &ValidationError{Message: m.Name, Field: f.Name,
				Reason: fmt.Sprintf("field number %d out of range [1, %d]", f.Number, MaxFieldNumber)}
		}
		if !IsPrimitive(f.Type) {
			return &ValidationError{Message: m.Name, Field: f.Name,
				Reason: fmt.Sprintf("unsupported type %q", f.Type)}
		}
		if other, ok := numbers[f.Number]; ok {
			return &ValidationError{Message: m.Name, Field: f.Name,
				Reason: fmt.Sprintf("field number %d already used by %q", f.Number, other)}
		}
		numbers[f.Number] = f.Name
		if _, ok := names[f.Name]; ok {
			return &ValidationError{Message: m.Name, Field: f.Name, Reason: "duplicate field name"}
		}
		names[f.Name] = struct{}{}
		if other, ok := jsonNames[f.JSONName()]; ok {
			return &ValidationError{Message: m.Name, Field: f.Name,
				Reason: fmt.Sprintf("JSON name %q already used by %q", f.JSONName(), other)}
		}
		jsonNames[f.JSONName()] = f.Name
	}
	return nil
}
