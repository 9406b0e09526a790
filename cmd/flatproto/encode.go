package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"github.com/anirudhraja/flatproto/stream"
	"github.com/anirudhraja/flatproto/value"
)

func newEncodeCmd(g *globalFlags) *cobra.Command {
	var (
		message   string
		format    string
		delimited bool
	)
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode JSON messages to the binary wire format",
		Long: "Reads one JSON object, or with --delimited a sequence of JSON objects, and\n" +
			"writes the wire bytes. Delimited output is varint length-prefixed frames.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			a, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.close()

			c, err := a.proto.Codec(message)
			if err != nil {
				return err
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			if !delimited {
				data, err := io.ReadAll(in)
				if err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				v, err := c.ParseJSON(trimNewline(data))
				if err != nil {
					return err
				}
				b, err := c.Encode(v)
				if err != nil {
					return err
				}
				return writeBytes(cmd.OutOrStdout(), format, b)
			}

			var src readErr
			var buf bytes.Buffer
			w := stream.NewWriter(&buf, a.frames...)
			n, err := w.WriteAll(c.EncodeTransform(src.jsonValues(in, c.ParseJSON)))
			if err != nil {
				return fmt.Errorf("message %d: %w", n, err)
			}
			if src.err != nil {
				return src.err
			}
			a.log.Debug().Int("messages", n).Int("bytes", buf.Len()).Msg("encoded")
			return writeBytes(cmd.OutOrStdout(), format, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message name (required)")
	cmd.Flags().StringVarP(&format, "format", "f", formatHex, "output format: hex, base64 or raw")
	cmd.Flags().BoolVar(&delimited, "delimited", false, "read a JSON sequence, write length-prefixed frames")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// readErr records the error that ended a source, which the transforms
// cannot carry themselves.
type readErr struct {
	err error
}

// jsonValues yields each top-level JSON value of r parsed with parse.
func (s *readErr) jsonValues(r io.Reader, parse func([]byte) (value.Value, error)) iter.Seq[stream.Packet[value.Value]] {
	return func(yield func(stream.Packet[value.Value]) bool) {
		dec := json.NewDecoder(r)
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.err = fmt.Errorf("failed to read JSON input: %w", err)
				return
			}
			v, err := parse(raw)
			if err != nil {
				s.err = err
				return
			}
			if !yield(stream.Single(v)) {
				return
			}
		}
	}
}

// frames yields each frame of r as a single packet.
func (s *readErr) frames(r *stream.Reader) iter.Seq[stream.Packet[[]byte]] {
	return func(yield func(stream.Packet[[]byte]) bool) {
		for p, err := range r.Frames() {
			if err != nil {
				s.err = err
				return
			}
			if !yield(stream.Single(p)) {
				return
			}
		}
	}
}
