package flatproto

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/anirudhraja/flatproto/internal/metrics"
	"github.com/anirudhraja/flatproto/jsonmap"
	"github.com/anirudhraja/flatproto/stream"
	"github.com/anirudhraja/flatproto/wire"
)

type options struct {
	logger     zerolog.Logger
	cfg        wire.Config
	int64Mode  *jsonmap.Int64Mode
	observers  []stream.Observer
	registerer prometheus.Registerer
	protoDirs  []string
}

// Option configures a Flatproto or a Codec.
type Option func(*options)

// WithLogger sets the logger. Decode failures are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig sets the wire decoding toggles.
func WithConfig(cfg wire.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithInt64JSON fixes the process-wide JSON representation of 64-bit
// integers. Setup fails if a different one is already in effect.
func WithInt64JSON(mode jsonmap.Int64Mode) Option {
	return func(o *options) { o.int64Mode = &mode }
}

// WithObserver reports every encoded and decoded message to obs.
func WithObserver(obs stream.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithMetrics registers message, byte and error counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithProtoDirectories sets the directories searched by LoadSchema for
// relative paths.
func WithProtoDirectories(dirs ...string) Option {
	return func(o *options) { o.protoDirs = append(o.protoDirs, dirs...) }
}

func setup(opts []Option) (*options, error) {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	if o.int64Mode != nil {
		if err := jsonmap.Init(*o.int64Mode); err != nil {
			return nil, err
		}
	}

	if o.registerer != nil {
		m, err := metrics.New(o.registerer)
		if err != nil {
			return nil, err
		}
		o.observers = append(o.observers, m)
		o.registerer = nil
	}
	return o, nil
}

// observers fans one observation out to several observers.
type observers []stream.Observer

func (obs observers) ObserveMessage(shape, direction string, size int, err error) {
	for _, o := range obs {
		o.ObserveMessage(shape, direction, size, err)
	}
}
