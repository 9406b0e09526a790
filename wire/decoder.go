package wire

import (
	"fmt"

	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/value"
)

// Decoder handles low-level protobuf wire format decoding. Reads never go
// past limit, which is the end of buf unless a length-bounded DecodeShape is
// in progress. It is not safe for concurrent use.
type Decoder struct {
	buf   []byte
	pos   int
	limit int
	cfg   Config
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf:   data,
		limit: len(data),
	}
}

// NewDecoderWithConfig creates a decoder with non-default behaviors
func NewDecoderWithConfig(data []byte, cfg Config) *Decoder {
	d := NewDecoder(data)
	d.cfg = cfg
	return d
}

// Pos returns the current read offset.
func (d *Decoder) Pos() int {
	return d.pos
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.limit - d.pos
}

// Reset points the decoder at new data, keeping its configuration.
func (d *Decoder) Reset(data []byte) {
	d.buf = data
	d.pos = 0
	d.limit = len(data)
}

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, msg *schema.Message, cfg Config) (value.Value, error) {
	decoder := NewDecoderWithConfig(data, cfg)
	return decoder.DecodeShape(msg, -1)
}

// DecodeShape decodes one message of shape msg starting at the current
// position. A negative length reads to the end of the buffer; otherwise
// exactly length bytes are consumed unless an end-group or zero key stops
// the message first.
func (d *Decoder) DecodeShape(msg *schema.Message, length int) (value.Value, error) {
	end := d.limit
	if length >= 0 {
		if length > d.limit-d.pos {
			return nil, fmt.Errorf("failed to decode message %s: %w: length %d, have %d",
				msg.Name, ErrInvalidLength, length, d.limit-d.pos)
		}
		end = d.pos + length
	}

	outer := d.limit
	d.limit = end
	defer func() { d.limit = outer }()

	md := NewMessageDecoder(d)
	v, err := md.DecodeMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
	}
	return v, nil
}

// DecodeRaw reads every remaining record without a shape. Groups are
// returned as a single record whose Data spans the group body.
func (d *Decoder) DecodeRaw() ([]RawField, error) {
	var fields []RawField
	for d.pos < d.limit {
		num, wt, err := d.readKey()
		if err != nil {
			return nil, err
		}
		if wt == WireEndGroup {
			return nil, fmt.Errorf("%w: end group %d outside a group", ErrInvalidGroup, num)
		}
		start := d.pos
		if wt == WireBytes {
			data, err := NewBytesDecoder(d).DecodeRawBytes()
			if err != nil {
				return nil, err
			}
			fields = append(fields, RawField{Number: num, WireType: wt, Data: data})
			continue
		}
		if err := d.skipField(uint64(num), wt); err != nil {
			return nil, err
		}
		fields = append(fields, RawField{Number: num, WireType: wt, Data: d.buf[start:d.pos]})
	}
	return fields, nil
}

// readKey reads a field key and validates its number and wire type.
func (d *Decoder) readKey() (FieldNumber, WireType, error) {
	key, err := d.DecodeVarint()
	if err != nil {
		return 0, 0, err
	}
	return parseKey(key)
}

func parseKey(key uint64) (FieldNumber, WireType, error) {
	if key>>3 > schema.MaxFieldNumber || key>>3 == 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidFieldNumber, key>>3)
	}
	num, wt := ParseTag(Tag(key))
	if !wt.Valid() {
		return 0, 0, fmt.Errorf("%w: %d for field %d", ErrInvalidWireType, wt, num)
	}
	return num, wt, nil
}

// splitKey splits a key without range-checking its field number, so records
// numbered 0 or past MaxFieldNumber can still be skipped. Only wire types 6
// and 7 are rejected.
func splitKey(key uint64) (uint64, WireType, error) {
	wt := WireType(key & 7)
	if !wt.Valid() {
		return 0, 0, fmt.Errorf("%w: %d for field %d", ErrInvalidWireType, wt, key>>3)
	}
	return key >> 3, wt, nil
}

// decodePrimitive decodes a value of kind t. The caller has already checked
// that the record's wire type matches t.
func (d *Decoder) decodePrimitive(t schema.PrimitiveType) (any, error) {
	switch t {
	case schema.TypeInt32:
		return NewVarintDecoder(d).DecodeInt32()
	case schema.TypeInt64:
		return NewVarintDecoder(d).DecodeInt64()
	case schema.TypeUint32:
		v, err := d.DecodeVarint()
		return uint32(v), err
	case schema.TypeUint64:
		return d.DecodeVarint()
	case schema.TypeSint32:
		return NewVarintDecoder(d).DecodeSint32()
	case schema.TypeSint64:
		return NewVarintDecoder(d).DecodeSint64()
	case schema.TypeBool:
		return NewVarintDecoder(d).DecodeBool()
	case schema.TypeFixed32:
		return d.DecodeFixed32()
	case schema.TypeSfixed32:
		return NewFixedDecoder(d).DecodeSfixed32()
	case schema.TypeFloat:
		return NewFixedDecoder(d).DecodeFloat32()
	case schema.TypeFixed64:
		return d.DecodeFixed64()
	case schema.TypeSfixed64:
		return NewFixedDecoder(d).DecodeSfixed64()
	case schema.TypeDouble:
		return NewFixedDecoder(d).DecodeFloat64()
	case schema.TypeString:
		return NewBytesDecoder(d).DecodeString()
	case schema.TypeBytes:
		return d.DecodeBytes()
	default:
		return nil, fmt.Errorf("unsupported primitive type %q", t)
	}
}

// skipField skips the value of a record whose key has been read. Groups are
// skipped through their matching end-group, tracking nesting on a stack.
func (d *Decoder) skipField(num uint64, wireType WireType) error {
	switch wireType {
	case WireVarint:
		return NewVarintDecoder(d).SkipVarint()
	case WireFixed64:
		if d.limit-d.pos < 8 {
			return ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case WireBytes:
		return NewBytesDecoder(d).SkipBytes()
	case WireFixed32:
		if d.limit-d.pos < 4 {
			return ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	case WireStartGroup:
		return d.skipGroup(num)
	case WireEndGroup:
		return fmt.Errorf("%w: unexpected end group %d", ErrInvalidGroup, num)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidWireType, wireType)
	}
}

func (d *Decoder) skipGroup(num uint64) error {
	open := []uint64{num}
	for len(open) > 0 {
		if d.pos >= d.limit {
			return fmt.Errorf("%w: group %d not terminated", ErrInvalidGroup, open[len(open)-1])
		}
		key, err := d.DecodeVarint()
		if err != nil {
			return err
		}
		n, wt, err := splitKey(key)
		if err != nil {
			return err
		}
		switch wt {
		case WireStartGroup:
			open = append(open, n)
		case WireEndGroup:
			if top := open[len(open)-1]; n != top {
				return fmt.Errorf("%w: end group %d closes group %d", ErrInvalidGroup, n, top)
			}
			open = open[:len(open)-1]
		default:
			if err := d.skipField(n, wt); err != nil {
				return err
			}
		}
	}
	return nil
}
