package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const (
	formatHex    = "hex"
	formatBase64 = "base64"
	formatRaw    = "raw"
)

func checkFormat(format string) error {
	switch format {
	case formatHex, formatBase64, formatRaw:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want hex, base64 or raw)", format)
	}
}

// writeBytes writes b to w in format, text formats ending in a newline.
func writeBytes(w io.Writer, format string, b []byte) error {
	var err error
	switch format {
	case formatHex:
		_, err = fmt.Fprintln(w, hex.EncodeToString(b))
	case formatBase64:
		_, err = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(b))
	default:
		_, err = w.Write(b)
	}
	return err
}

// readBytes reads all of r and decodes it from format. Whitespace is
// ignored in the text formats.
func readBytes(r io.Reader, format string) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if format == formatRaw {
		return data, nil
	}
	text := strings.Join(strings.Fields(string(data)), "")
	switch format {
	case formatHex:
		out, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
		return out, nil
	default:
		out, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 input: %w", err)
		}
		return out, nil
	}
}

func trimNewline(b []byte) []byte {
	return bytes.TrimRight(b, "\n")
}
