package wire

import (
	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/value"
)

// Encoder handles low-level protobuf wire format encoding. It is not safe
// for concurrent use.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0),
	}
}

// NewEncoderSize creates an encoder whose buffer can hold n bytes without
// growing.
func NewEncoderSize(n int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, n),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) truncate(n int) {
	e.buf = e.buf[:n]
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// EncodeTag writes a field key.
func (e *Encoder) EncodeTag(num FieldNumber, wt WireType) {
	e.EncodeVarint(uint64(MakeTag(num, wt)))
}

// EncodeShape appends v encoded as msg: non-zero fields in shape order,
// then any preserved unknown bytes.
func (e *Encoder) EncodeShape(v value.Value, msg *schema.Message) error {
	me := NewMessageEncoder(e)
	return me.EncodeMessage(v, msg)
}

// EncodeMessage encodes a message using schema - main entry point
func EncodeMessage(v value.Value, msg *schema.Message) ([]byte, error) {
	n, err := Size(v, msg)
	if err != nil {
		return nil, err
	}
	encoder := NewEncoderSize(n)
	if err := encoder.EncodeShape(v, msg); err != nil {
		return nil, err
	}
	return encoder.Bytes(), nil
}
