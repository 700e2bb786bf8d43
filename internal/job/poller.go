// internal/job/poller.go
package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Terminal prefixes written by the remote simulator.
const (
	SuccessPrefix = "Success::"
	FailurePrefix = "Failure::"
)

// State is the poller's view of the remote job.
type State int

const (
	StateRunning State = iota
	StateSucceeded
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StatusReader reads the status field of the page.
type StatusReader interface {
	TextContent(ctx context.Context, selector string) (string, error)
}

// PollOptions configures the completion poller.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// EmitIntermediate forwards every non-terminal observation to the observer.
	EmitIntermediate bool
}

// Outcome is what the poll loop ended with.
type Outcome struct {
	State State
	// Text is the last status text read; for TimedOut it is the last non-terminal text.
	Text     string
	Attempts int
}

// Terminal reports whether the remote job finished (as opposed to timing out).
func (o Outcome) Terminal() bool {
	return o.State == StateSucceeded || o.State == StateFailed
}

// Observer receives intermediate status text as it is read.
type Observer func(text string) error

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller watches the status field until a terminal prefix appears or the attempt budget
// runs out. Reads are strictly sequential.
type Poller struct {
	opts     PollOptions
	selector string
	logger   *zap.Logger
	sleep    SleepFunc
	observer Observer
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithSleep replaces the inter-poll wait.
func WithSleep(fn SleepFunc) PollerOption {
	return func(p *Poller) { p.sleep = fn }
}

// WithObserver sets the callback used when EmitIntermediate is enabled.
func WithObserver(fn Observer) PollerOption {
	return func(p *Poller) { p.observer = fn }
}

// NewPoller creates a Poller reading the element matched by statusSelector.
func NewPoller(opts PollOptions, statusSelector string, logger *zap.Logger, options ...PollerOption) *Poller {
	p := &Poller{
		opts:     opts,
		selector: statusSelector,
		logger:   logger.Named("poller"),
		sleep:    sleepContext,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Poll runs the poll loop. It returns an error only when a read fails, the observer
// fails, or ctx is cancelled; a timeout is reported through the Outcome.
func (p *Poller) Poll(ctx context.Context, reader StatusReader) (Outcome, error) {
	var last string
	for attempt := 0; ; {
		if attempt > 0 {
			if err := p.sleep(ctx, p.opts.Interval); err != nil {
				return Outcome{State: StateRunning, Text: last, Attempts: attempt}, err
			}
		}

		text, err := reader.TextContent(ctx, p.selector)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{State: StateRunning, Text: last, Attempts: attempt}, ctx.Err()
			}
			return Outcome{State: StateRunning, Text: last, Attempts: attempt},
				&Error{Code: ErrCodeObservation, Op: p.selector, Err: err}
		}
		last = text
		attempt++

		if state := classify(text); state != StateRunning {
			p.logger.Info("Remote job finished.", zap.Stringer("state", state), zap.Int("attempts", attempt))
			return Outcome{State: state, Text: text, Attempts: attempt}, nil
		}

		if p.opts.EmitIntermediate {
			p.logger.Info("Status observed.", zap.Int("attempt", attempt), zap.String("status", text))
			if p.observer != nil {
				if err := p.observer(text); err != nil {
					return Outcome{State: StateRunning, Text: text, Attempts: attempt}, fmt.Errorf("failed to emit status: %w", err)
				}
			}
		} else {
			p.logger.Debug("Status observed.", zap.Int("attempt", attempt), zap.String("status", text))
		}

		if attempt >= p.opts.MaxAttempts {
			p.logger.Warn("Remote job did not finish within the attempt budget.",
				zap.Int("attempts", attempt),
				zap.Duration("interval", p.opts.Interval),
			)
			return Outcome{State: StateTimedOut, Text: text, Attempts: attempt}, nil
		}
	}
}

func classify(text string) State {
	switch {
	case strings.HasPrefix(text, SuccessPrefix):
		return StateSucceeded
	case strings.HasPrefix(text, FailurePrefix):
		return StateFailed
	}
	return StateRunning
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
