// internal/job/result.go
package job

import (
	"fmt"
	"regexp"
	"strconv"
)

// Unreported marks a field the status line did not carry.
const Unreported = -1

var (
	commandsRe = regexp.MustCompile(`Commands:\s*([0-9]+)`)
	energyRe   = regexp.MustCompile(`Energy:\s*([0-9]+)`)
)

// Result is the structured outcome extracted from a terminal status line.
type Result struct {
	Commands int `json:"commands"`
	Energy   int `json:"energy"`
}

// ResultMode selects how terminal status text is turned into output.
type ResultMode string

const (
	// ResultStructured extracts Commands and Energy.
	ResultStructured ResultMode = "structured"
	// ResultRaw passes the status text through untouched.
	ResultRaw ResultMode = "raw"
)

// ParseResultMode validates a configured result mode.
func ParseResultMode(s string) (ResultMode, error) {
	switch ResultMode(s) {
	case ResultStructured, ResultRaw:
		return ResultMode(s), nil
	}
	return "", fmt.Errorf("unsupported result mode %q (expected %q or %q)", s, ResultStructured, ResultRaw)
}

// ParseResult extracts the numeric fields from status text. It never fails: a field
// that is absent, or too large for an int, is reported as Unreported.
func ParseResult(text string) Result {
	return Result{
		Commands: findInt(commandsRe, text),
		Energy:   findInt(energyRe, text),
	}
}

func findInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Unreported
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Unreported
	}
	return n
}
