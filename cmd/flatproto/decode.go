package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anirudhraja/flatproto/stream"
	"github.com/anirudhraja/flatproto/wire"
)

func newDecodeCmd(g *globalFlags) *cobra.Command {
	var (
		message   string
		format    string
		delimited bool
	)
	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode wire bytes to JSON",
		Long: "Decodes one message, or with --delimited a sequence of length-prefixed frames,\n" +
			"and prints one JSON object per line. Without --message the records are\n" +
			"listed raw: field number, wire type and payload in hex.",
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

			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			data, err := readBytes(in, format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if message == "" {
				fields, err := wire.NewDecoder(data).DecodeRaw()
				if err != nil {
					return err
				}
				for _, f := range fields {
					fmt.Fprintf(out, "%d\t%s\t%x\n", f.Number, f.WireType, f.Data)
				}
				return nil
			}

			c, err := a.proto.Codec(message)
			if err != nil {
				return err
			}
			if !delimited {
				v, err := c.Decode(data)
				if err != nil {
					return err
				}
				js, err := c.JSON(v)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%s\n", js)
				return err
			}

			var src readErr
			r := stream.NewReader(bytes.NewReader(data), a.frames...)
			i := 0
			for v, err := range c.DecodeTransform(src.frames(r)) {
				if err != nil {
					return fmt.Errorf("message %d: %w", i, err)
				}
				js, err := c.JSON(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n", js)
				i++
			}
			return src.err
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message name; raw record listing when empty")
	cmd.Flags().StringVarP(&format, "format", "f", formatHex, "input format: hex, base64 or raw")
	cmd.Flags().BoolVar(&delimited, "delimited", false, "read length-prefixed frames")
	return cmd
}
