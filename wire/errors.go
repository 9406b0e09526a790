package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is matched by every error caused by bytes that are not
// valid protobuf wire data.
var ErrMalformedInput = errors.New("malformed input")

var (
	ErrVarintOverflow     = fmt.Errorf("%w: varint overflows 64 bits", ErrMalformedInput)
	ErrUnexpectedEOF      = fmt.Errorf("%w: unexpected end of input", ErrMalformedInput)
	ErrInvalidLength      = fmt.Errorf("%w: length exceeds remaining input", ErrMalformedInput)
	ErrInvalidWireType    = fmt.Errorf("%w: invalid wire type", ErrMalformedInput)
	ErrInvalidFieldNumber = fmt.Errorf("%w: invalid field number", ErrMalformedInput)
	ErrInvalidGroup       = fmt.Errorf("%w: unterminated or mismatched group", ErrMalformedInput)
)

// ErrWireTypeMismatch is returned in strict mode when a known field arrives
// with a wire type that does not match its kind.
var ErrWireTypeMismatch = errors.New("wire type does not match field kind")

// FieldError represents an encoding/decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["example_field"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// wrapWithField wraps an error with a field name
func wrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
