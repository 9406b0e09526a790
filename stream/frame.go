package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/golang/snappy"

	"github.com/anirudhraja/flatproto/wire"
)

// DefaultMaxFrameSize bounds a single frame unless WithMaxFrameSize says
// otherwise.
const DefaultMaxFrameSize = 64 << 20

// ErrFrameTooLarge is returned for a frame whose length prefix, or whose
// decompressed size, exceeds the configured maximum.
var ErrFrameTooLarge = errors.New("stream: frame exceeds maximum size")

// Compression selects per-frame compression. Both ends must agree.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSnappy
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ParseCompression parses "none" or "snappy".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return 0, fmt.Errorf("stream: unknown compression %q", s)
	}
}

type frameConfig struct {
	maxFrameSize int
	compression  Compression
}

// FrameOption configures a Reader or Writer.
type FrameOption func(*frameConfig)

// WithMaxFrameSize sets the largest accepted frame in bytes.
func WithMaxFrameSize(n int) FrameOption { return func(c *frameConfig) { c.maxFrameSize = n } }

// WithCompression sets per-frame compression.
func WithCompression(comp Compression) FrameOption {
	return func(c *frameConfig) { c.compression = comp }
}

func newFrameConfig(opts []FrameOption) frameConfig {
	c := frameConfig{maxFrameSize: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxFrameSize <= 0 {
		c.maxFrameSize = DefaultMaxFrameSize
	}
	return c
}

// wireLimit is the largest length prefix accepted. A snappy block of a
// maximum-size frame may be larger than the frame itself.
func (c frameConfig) wireLimit() uint64 {
	if c.compression == CompressionSnappy {
		if n := snappy.MaxEncodedLen(c.maxFrameSize); n > 0 {
			return uint64(n)
		}
	}
	return uint64(c.maxFrameSize)
}

// Writer writes varint length-prefixed frames.
type Writer struct {
	w   io.Writer
	cfg frameConfig
	buf []byte
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer, opts ...FrameOption) *Writer {
	return &Writer{w: w, cfg: newFrameConfig(opts)}
}

// WriteFrame writes p as one frame.
func (w *Writer) WriteFrame(p []byte) error {
	if len(p) > w.cfg.maxFrameSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(p), w.cfg.maxFrameSize)
	}
	if w.cfg.compression == CompressionSnappy {
		p = snappy.Encode(nil, p)
	}
	w.buf = wire.AppendVarint(w.buf[:0], uint64(len(p)))
	w.buf = append(w.buf, p...)
	_, err := w.w.Write(w.buf)
	return err
}

// WriteAll writes every chunk of seq as a frame and returns the number of
// frames written. It stops at the first error from seq or from writing.
func (w *Writer) WriteAll(seq iter.Seq2[[]byte, error]) (int, error) {
	n := 0
	for chunk, err := range seq {
		if err != nil {
			return n, err
		}
		if err := w.WriteFrame(chunk); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Reader reads varint length-prefixed frames.
type Reader struct {
	r   *bufio.Reader
	cfg frameConfig
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader, opts ...FrameOption) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, cfg: newFrameConfig(opts)}
}

// ReadFrame reads the next frame. It returns io.EOF when the input ends on a
// frame boundary and io.ErrUnexpectedEOF when it ends inside a frame.
func (r *Reader) ReadFrame() ([]byte, error) {
	n, err := wire.ReadVarint(r.r)
	if err != nil {
		return nil, err
	}
	if limit := r.cfg.wireLimit(); n > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, limit)
	}
	p := make([]byte, n)
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if r.cfg.compression != CompressionSnappy {
		return p, nil
	}

	if dn, err := snappy.DecodedLen(p); err == nil && dn > r.cfg.maxFrameSize {
		return nil, fmt.Errorf("%w: decompressed %d > %d", ErrFrameTooLarge, dn, r.cfg.maxFrameSize)
	}
	out, err := snappy.Decode(nil, p)
	if err != nil {
		return nil, fmt.Errorf("stream: snappy frame: %w", err)
	}
	return out, nil
}

// Frames yields every remaining frame. The sequence ends at io.EOF; any
// other error is yielded once and ends it, since the stream position is no
// longer known.
func (r *Reader) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			p, err := r.ReadFrame()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}
