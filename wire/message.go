package wire

import (
	"fmt"

	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/value"
)

// MessageDecoder handles message decoding operations
type MessageDecoder struct {
	decoder *Decoder
}

// MessageEncoder handles message encoding operations
type MessageEncoder struct {
	encoder *Encoder
}

// NewMessageDecoder creates a new message decoder
func NewMessageDecoder(d *Decoder) *MessageDecoder {
	return &MessageDecoder{decoder: d}
}

// NewMessageEncoder creates a new message encoder
func NewMessageEncoder(e *Encoder) *MessageEncoder {
	return &MessageEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMessage reads records up to the decoder's limit into a Value that
// starts at the zero value of msg. A zero key or an end-group key ends the
// message early with the cursor left just after that key.
func (md *MessageDecoder) DecodeMessage(msg *schema.Message) (value.Value, error) {
	d := md.decoder
	result := value.CreateBase(msg)
	var unknown []byte

	for d.pos < d.limit {
		start := d.pos
		key, err := d.DecodeVarint()
		if err != nil {
			return nil, err
		}
		if key == 0 || key&7 == uint64(WireEndGroup) {
			break
		}
		fieldNumber, wireType, err := splitKey(key)
		if err != nil {
			return nil, err
		}

		var field *schema.Field
		if fieldNumber >= 1 && fieldNumber <= schema.MaxFieldNumber {
			field = msg.FieldByNumber(int32(fieldNumber))
		}
		if field != nil {
			want := WireTypeOf(field.Type)
			if wireType == want {
				v, err := d.decodePrimitive(field.Type)
				if err != nil {
					return nil, wrapWithField(err, field.Name)
				}
				result[field.Name] = v
				continue
			}
			if d.cfg.StrictWireType {
				return nil, wrapWithField(
					fmt.Errorf("%w: got %s, want %s", ErrWireTypeMismatch, wireType, want), field.Name)
			}
		}

		// Unknown, out-of-range or mismatched: skip it.
		if err := d.skipField(fieldNumber, wireType); err != nil {
			return nil, err
		}
		if d.cfg.PreserveUnknown {
			unknown = append(unknown, d.buf[start:d.pos]...)
		}
	}

	if len(unknown) > 0 {
		result[value.UnknownFieldsKey] = unknown
	}
	return result, nil
}

// ENCODER METHODS

// EncodeMessage writes the non-zero fields of data in shape order, then any
// preserved unknown bytes. Entries that name no field are ignored. On error
// nothing of the message is left in the encoder.
func (me *MessageEncoder) EncodeMessage(data value.Value, msg *schema.Message) error {
	start := me.encoder.Len()
	for _, field := range msg.Fields {
		raw, ok := data[field.Name]
		if !ok || raw == nil {
			continue
		}
		if err := me.encodeField(field, raw); err != nil {
			me.encoder.truncate(start)
			return wrapWithField(err, field.Name)
		}
	}
	if u := data.Unknown(); len(u) > 0 {
		me.encoder.buf = append(me.encoder.buf, u...)
	}
	return nil
}

func (me *MessageEncoder) encodeField(field *schema.Field, raw any) error {
	v, err := value.Canonical(field.Type, raw)
	if err != nil {
		return err
	}
	if value.IsZero(field.Type, v) {
		return nil
	}

	e := me.encoder
	e.EncodeTag(FieldNumber(field.Number), WireTypeOf(field.Type))
	ve := NewVarintEncoder(e)
	fe := NewFixedEncoder(e)
	be := NewBytesEncoder(e)
	switch field.Type {
	case schema.TypeInt32:
		ve.EncodeInt32(v.(int32))
	case schema.TypeInt64:
		ve.EncodeInt64(v.(int64))
	case schema.TypeUint32:
		ve.EncodeUint32(v.(uint32))
	case schema.TypeUint64:
		ve.EncodeUint64(v.(uint64))
	case schema.TypeSint32:
		ve.EncodeSint32(v.(int32))
	case schema.TypeSint64:
		ve.EncodeSint64(v.(int64))
	case schema.TypeBool:
		ve.EncodeBool(v.(bool))
	case schema.TypeFixed32:
		fe.EncodeFixed32(v.(uint32))
	case schema.TypeSfixed32:
		fe.EncodeSfixed32(v.(int32))
	case schema.TypeFloat:
		fe.EncodeFloat32(v.(float32))
	case schema.TypeFixed64:
		fe.EncodeFixed64(v.(uint64))
	case schema.TypeSfixed64:
		fe.EncodeSfixed64(v.(int64))
	case schema.TypeDouble:
		fe.EncodeFloat64(v.(float64))
	case schema.TypeString:
		be.EncodeString(v.(string))
	case schema.TypeBytes:
		be.EncodeBytes(v.([]byte))
	default:
		return fmt.Errorf("unsupported primitive type %q", field.Type)
	}
	return nil
}

// UTILITY FUNCTIONS

// Size returns the exact number of bytes EncodeMessage produces for data.
func Size(data value.Value, msg *schema.Message) (int, error) {
	n := 0
	for _, field := range msg.Fields {
		raw, ok := data[field.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := value.Canonical(field.Type, raw)
		if err != nil {
			return 0, wrapWithField(err, field.Name)
		}
		if value.IsZero(field.Type, v) {
			continue
		}
		n += VarintSize(uint64(MakeTag(FieldNumber(field.Number), WireTypeOf(field.Type))))
		n += valueSize(field.Type, v)
	}
	return n + len(data.Unknown()), nil
}

func valueSize(t schema.PrimitiveType, v any) int {
	switch t {
	case schema.TypeInt32:
		return VarintSize(uint64(v.(int32)))
	case schema.TypeInt64:
		return VarintSize(uint64(v.(int64)))
	case schema.TypeUint32:
		return VarintSize(uint64(v.(uint32)))
	case schema.TypeUint64:
		return VarintSize(v.(uint64))
	case schema.TypeSint32:
		return VarintSize(EncodeZigZag32(v.(int32)))
	case schema.TypeSint64:
		return VarintSize(EncodeZigZag64(v.(int64)))
	case schema.TypeBool:
		return 1
	case schema.TypeFixed32, schema.TypeSfixed32, schema.TypeFloat:
		return 4
	case schema.TypeFixed64, schema.TypeSfixed64, schema.TypeDouble:
		return 8
	case schema.TypeString:
		return StringSize(v.(string))
	case schema.TypeBytes:
		return BytesSize(v.([]byte))
	default:
		return 0
	}
}
