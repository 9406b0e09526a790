package flatproto

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/anirudhraja/flatproto/jsonmap"
	"github.com/anirudhraja/flatproto/schema"
	"github.com/anirudhraja/flatproto/stream"
	"github.com/anirudhraja/flatproto/value"
	"github.com/anirudhraja/flatproto/wire"
)

// Codec converts values of one message shape. It is immutable and safe for
// concurrent use.
type Codec struct {
	msg      *schema.Message
	cfg      wire.Config
	logger   zerolog.Logger
	observer stream.Observer
}

// NewCodec validates msg and returns its codec.
func NewCodec(msg *schema.Message, opts ...Option) (*Codec, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	o, err := setup(opts)
	if err != nil {
		return nil, err
	}
	return newCodec(msg, o), nil
}

// MustCodec is NewCodec that panics on error, for shapes fixed at compile
// time.
func MustCodec(msg *schema.Message, opts ...Option) *Codec {
	c, err := NewCodec(msg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func newCodec(msg *schema.Message, o *options) *Codec {
	c := &Codec{
		msg:    msg,
		cfg:    o.cfg,
		logger: o.logger.With().Str("shape", msg.QualifiedName()).Logger(),
	}
	switch len(o.observers) {
	case 0:
	case 1:
		c.observer = o.observers[0]
	default:
		c.observer = observers(o.observers)
	}
	return c
}

// Shape returns the message shape.
func (c *Codec) Shape() *schema.Message { return c.msg }

// Name returns the qualified message name.
func (c *Codec) Name() string { return c.msg.QualifiedName() }

// CreateBase returns a value with every field at its zero value.
func (c *Codec) CreateBase() value.Value {
	return value.CreateBase(c.msg)
}

// Encode returns the wire bytes of v.
func (c *Codec) Encode(v value.Value) ([]byte, error) {
	b, err := c.encode(v)
	c.observe(stream.DirectionEncode, len(b), err)
	return b, err
}

// EncodeTo appends v to enc and returns enc. A nil enc starts a new buffer.
func (c *Codec) EncodeTo(enc *wire.Encoder, v value.Value) (*wire.Encoder, error) {
	if enc == nil {
		enc = wire.NewEncoder()
	}
	start := enc.Len()
	err := enc.EncodeShape(v, c.msg)
	c.observe(stream.DirectionEncode, enc.Len()-start, err)
	return enc, err
}

func (c *Codec) encode(v value.Value) ([]byte, error) {
	return wire.EncodeMessage(v, c.msg)
}

// Decode parses wire bytes. Fields missing from data take their zero value
// and unknown fields are skipped.
func (c *Codec) Decode(data []byte) (value.Value, error) {
	v, err := c.decode(data)
	c.observe(stream.DirectionDecode, len(data), err)
	return v, err
}

// DecodeFrom reads one message from dec. A negative length reads to the end
// of the buffer, otherwise exactly length bytes. dec's own Config applies.
func (c *Codec) DecodeFrom(dec *wire.Decoder, length int) (value.Value, error) {
	start := dec.Pos()
	v, err := dec.DecodeShape(c.msg, length)
	size := dec.Pos() - start
	c.observe(stream.DirectionDecode, size, err)
	if err != nil {
		c.logDecodeError(err, size)
		return nil, err
	}
	return v, nil
}

func (c *Codec) decode(data []byte) (value.Value, error) {
	v, err := wire.DecodeMessage(data, c.msg, c.cfg)
	if err != nil {
		c.logDecodeError(err, len(data))
		return nil, err
	}
	if u := v.Unknown(); len(u) > 0 {
		c.logger.Trace().Int("unknown_bytes", len(u)).Msg("unknown fields preserved")
	}
	return v, nil
}

func (c *Codec) logDecodeError(err error, size int) {
	c.logger.Debug().Err(err).
		Int("size", size).
		Bool("malformed", errors.Is(err, wire.ErrMalformedInput)).
		Msg("decode failed")
}

func (c *Codec) observe(direction string, size int, err error) {
	if c.observer != nil {
		c.observer.ObserveMessage(c.Name(), direction, size, err)
	}
}

// Size returns the encoded length of v.
func (c *Codec) Size(v value.Value) (int, error) {
	return wire.Size(v, c.msg)
}

// FromJSON builds a value from a decoded JSON object.
func (c *Codec) FromJSON(obj map[string]any) (value.Value, error) {
	return jsonmap.FromJSON(c.msg, obj)
}

// ToJSON returns the JSON object of v, non-zero fields only.
func (c *Codec) ToJSON(v value.Value) (map[string]any, error) {
	return jsonmap.ToJSON(c.msg, v)
}

// JSON returns the JSON text of v, keys in shape order.
func (c *Codec) JSON(v value.Value) ([]byte, error) {
	return jsonmap.Marshal(c.msg, v)
}

// ParseJSON parses JSON text.
func (c *Codec) ParseJSON(data []byte) (value.Value, error) {
	return jsonmap.Unmarshal(c.msg, data)
}

// Create returns a fully populated value: all zero without an argument,
// otherwise the zero value merged with partial.
func (c *Codec) Create(partial ...value.Value) (value.Value, error) {
	switch len(partial) {
	case 0:
		return c.CreateBase(), nil
	case 1:
		return c.FromPartial(partial[0])
	default:
		return nil, fmt.Errorf("create %s: at most one partial value, got %d", c.Name(), len(partial))
	}
}

// FromPartial merges partial over the zero value, coercing each field.
func (c *Codec) FromPartial(partial value.Value) (value.Value, error) {
	return value.FromPartial(c.msg, partial)
}

// Equal reports whether a and b hold the same field values.
func (c *Codec) Equal(a, b value.Value) bool {
	return value.Equal(c.msg, a, b)
}

// Clone returns a deep copy of v.
func (c *Codec) Clone(v value.Value) value.Value {
	return value.Clone(c.msg, v)
}

func (c *Codec) streamOptions() []stream.Option {
	opts := []stream.Option{stream.WithName(c.Name()), stream.WithLogger(c.logger)}
	if c.observer != nil {
		opts = append(opts, stream.WithObserver(c.observer))
	}
	return opts
}

// EncodeTransform encodes every message of src lazily, in order.
func (c *Codec) EncodeTransform(src iter.Seq[stream.Packet[value.Value]]) iter.Seq2[[]byte, error] {
	return stream.EncodeTransform(src, c.encode, c.streamOptions()...)
}

// DecodeTransform decodes every chunk of src lazily, in order.
func (c *Codec) DecodeTransform(src iter.Seq[stream.Packet[[]byte]]) iter.Seq2[value.Value, error] {
	return stream.DecodeTransform(src, c.decode, c.streamOptions()...)
}

// Text renders v on one line, non-zero fields only:
//
//	ExampleMsg { example_field: "hello" }
func (c *Codec) Text(v value.Value) string {
	var parts []string
	for _, f := range c.msg.Fields {
		fv, err := v.Get(f)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%s: <%v>", f.Name, v[f.Name]))
			continue
		}
		if value.IsZero(f.Type, fv) {
			continue
		}
		parts = append(parts, f.Name+": "+textValue(fv))
	}
	if u := v.Unknown(); len(u) > 0 {
		parts = append(parts, fmt.Sprintf("<%d unknown bytes>", len(u)))
	}
	if len(parts) == 0 {
		return c.msg.Name + " {}"
	}
	return c.msg.Name + " { " + strings.Join(parts, " ") + " }"
}

func textValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []byte:
		return strconv.Quote(string(x))
	case float64:
		return textFloat(x, 64)
	case float32:
		return textFloat(float64(x), 32)
	default:
		return fmt.Sprint(x)
	}
}

func textFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
