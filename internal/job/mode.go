// internal/job/mode.go
package job

import (
	"fmt"
	"strings"
)

// Mode selects which model files accompany the trace.
type Mode string

const (
	// ModeAssemble builds the target from an empty matrix; there is no source model.
	ModeAssemble Mode = "assemble"
	// ModeDisassemble empties the source matrix; there is no target model.
	ModeDisassemble Mode = "disassemble"
	// ModeReassemble turns the source model into the target model.
	ModeReassemble Mode = "reassemble"
)

// Modes lists every accepted mode in CLI order.
var Modes = []Mode{ModeAssemble, ModeDisassemble, ModeReassemble}

// ParseMode validates a user supplied mode. The match is exact.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if s == string(m) {
			return m, nil
		}
	}
	return "", &Error{
		Code: ErrCodeInvalidMode,
		Err:  fmt.Errorf("%q (expected one of %s)", s, strings.Join(ModeNames(), ", ")),
	}
}

// ModeNames returns the accepted modes as strings, e.g. for shell completion.
func ModeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return names
}

func (m Mode) String() string { return string(m) }

// NeedsSource reports whether a real source model must be attached.
func (m Mode) NeedsSource() bool { return m != ModeAssemble }

// NeedsTarget reports whether a real target model must be attached.
func (m Mode) NeedsTarget() bool { return m != ModeDisassemble }
