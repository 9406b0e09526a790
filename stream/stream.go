// Package stream adapts flat message codecs to lazy sequences and to
// length-delimited byte streams.
//
// Transforms are pull-based: nothing is read from the source until the
// consumer asks for the next element, and breaking out of a range loop stops
// the source without reading further input. A failure for one element is
// yielded in place as (zero, err); the consumer decides whether to go on.
package stream

import (
	"context"
	"iter"

	"github.com/rs/zerolog"
)

// Packet is one element of a source sequence: a single message or a batch
// whose messages are flattened in order.
type Packet[T any] []T

// Single wraps one message.
func Single[T any](v T) Packet[T] {
	return Packet[T]{v}
}

// Batch wraps several messages delivered together.
func Batch[T any](vs ...T) Packet[T] {
	return Packet[T](vs)
}

// EncodeFunc encodes one message.
type EncodeFunc[T any] func(T) ([]byte, error)

// DecodeFunc decodes one message.
type DecodeFunc[T any] func([]byte) (T, error)

// Observer is notified once per transformed element.
type Observer interface {
	ObserveMessage(shape, direction string, size int, err error)
}

const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
)

type options struct {
	name     string
	logger   zerolog.Logger
	observer Observer
}

// Option configures a transform.
type Option func(*options)

// WithName labels log lines and observations with a shape name.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithLogger logs per-element failures at debug level.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// WithObserver reports every element to obs.
func WithObserver(obs Observer) Option { return func(o *options) { o.observer = obs } }

func newOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) observe(direction string, index, size int, err error) {
	if o.observer != nil {
		o.observer.ObserveMessage(o.name, direction, size, err)
	}
	if err != nil {
		o.logger.Debug().Err(err).
			Str("shape", o.name).
			Str("direction", direction).
			Int("index", index).
			Msg("stream element failed")
	}
}

// EncodeTransform yields one encoded chunk per message of src, in order.
func EncodeTransform[T any](src iter.Seq[Packet[T]], encode EncodeFunc[T], opts ...Option) iter.Seq2[[]byte, error] {
	o := newOptions(opts)
	return func(yield func([]byte, error) bool) {
		i := 0
		for p := range src {
			for _, v := range p {
				b, err := encode(v)
				o.observe(DirectionEncode, i, len(b), err)
				i++
				if err != nil {
					b = nil
				}
				if !yield(b, err) {
					return
				}
			}
		}
	}
}

// DecodeTransform yields one decoded message per chunk of src, in order.
func DecodeTransform[T any](src iter.Seq[Packet[[]byte]], decode DecodeFunc[T], opts ...Option) iter.Seq2[T, error] {
	o := newOptions(opts)
	return func(yield func(T, error) bool) {
		i := 0
		for p := range src {
			for _, chunk := range p {
				v, err := decode(chunk)
				o.observe(DirectionDecode, i, len(chunk), err)
				i++
				if err != nil {
					var zero T
					v = zero
				}
				if !yield(v, err) {
					return
				}
			}
		}
	}
}

// Of returns a finite source of the given packets.
func Of[T any](packets ...Packet[T]) iter.Seq[Packet[T]] {
	return func(yield func(Packet[T]) bool) {
		for _, p := range packets {
			if !yield(p) {
				return
			}
		}
	}
}

// FromSlice returns a source yielding each element of vs as a single packet.
func FromSlice[T any](vs []T) iter.Seq[Packet[T]] {
	return func(yield func(Packet[T]) bool) {
		for _, v := range vs {
			if !yield(Single(v)) {
				return
			}
		}
	}
}

// FromChan returns a source that receives packets from ch until ch is closed
// or ctx is done.
func FromChan[T any](ctx context.Context, ch <-chan Packet[T]) iter.Seq[Packet[T]] {
	return func(yield func(Packet[T]) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-ch:
				if !ok {
					return
				}
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Collect drains seq, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
