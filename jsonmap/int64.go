package jsonmap

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Int64Mode selects how 64-bit integer kinds are written to JSON.
type Int64Mode int

const (
	// Int64Number writes 64-bit integers as JSON numbers.
	Int64Number Int64Mode = iota
	// Int64String writes 64-bit integers as decimal strings.
	Int64String
)

func (m Int64Mode) String() string {
	switch m {
	case Int64Number:
		return "number"
	case Int64String:
		return "string"
	default:
		return fmt.Sprintf("Int64Mode(%d)", int(m))
	}
}

// ParseInt64Mode parses "number" or "string".
func ParseInt64Mode(s string) (Int64Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "number":
		return Int64Number, nil
	case "string":
		return Int64String, nil
	default:
		return 0, fmt.Errorf("jsonmap: unknown int64 representation %q", s)
	}
}

// ErrInt64Configured is returned by Init when a different representation is
// already in effect.
var ErrInt64Configured = errors.New("jsonmap: int64 representation already configured")

var (
	int64Once sync.Once
	int64Mode Int64Mode
)

// Init fixes the process-wide int64 representation. Only the first call (or
// the first JSON conversion, which fixes Int64Number) takes effect; asking
// again for the mode in effect is a no-op.
func Init(mode Int64Mode) error {
	applied := false
	int64Once.Do(func() {
		int64Mode = mode
		applied = true
	})
	if applied || int64Mode == mode {
		return nil
	}
	return fmt.Errorf("%w: %s requested, %s in effect", ErrInt64Configured, mode, int64Mode)
}

// Int64Representation returns the mode in effect, fixing the default if
// Init was never called.
func Int64Representation() Int64Mode {
	int64Once.Do(func() { int64Mode = Int64Number })
	return int64Mode
}
