// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/tracescore/internal/job"
)

// TimeoutIndicator is printed when the poll budget runs out without a terminal status.
const TimeoutIndicator = "Timeout!"

// Reporter writes a job's observable output.
type Reporter interface {
	// Observe receives a non-terminal status line while the job is still running.
	Observe(text string) error
	// Report writes the final line for a finished poll.
	Report(outcome job.Outcome) error
}

// New creates a reporter for the given result mode writing to w.
func New(mode job.ResultMode, w io.Writer) (Reporter, error) {
	switch mode {
	case job.ResultStructured:
		return &structuredReporter{w: w}, nil
	case job.ResultRaw:
		return &rawReporter{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported result mode: %q", mode)
	}
}

// structuredReporter prints one compact JSON object with the parsed metrics.
type structuredReporter struct {
	w io.Writer
}

func (r *structuredReporter) Observe(string) error { return nil }

func (r *structuredReporter) Report(outcome job.Outcome) error {
	if outcome.State == job.StateTimedOut {
		return writeLine(r.w, TimeoutIndicator)
	}
	data, err := json.Marshal(job.ParseResult(outcome.Text))
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return writeLine(r.w, string(data))
}

// rawReporter passes status text through unchanged.
type rawReporter struct {
	w io.Writer
}

func (r *rawReporter) Observe(text string) error {
	return writeLine(r.w, text)
}

func (r *rawReporter) Report(outcome job.Outcome) error {
	if outcome.State == job.StateTimedOut {
		return writeLine(r.w, TimeoutIndicator)
	}
	return writeLine(r.w, outcome.Text)
}

func writeLine(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
