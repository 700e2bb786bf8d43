// File: internal/orchestrator/orchestrator.go
// Description: Owns a single job run. It is injected with the browser launcher and the
// reporter via interfaces, so the whole sequence can be tested without Chrome.

package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tracescore/internal/config"
	"github.com/xkilldash9x/tracescore/internal/job"
	"github.com/xkilldash9x/tracescore/internal/reporting"
)

// PageSession is a live browser tab the job is run in.
type PageSession interface {
	job.Page
	job.StatusReader
	ID() string
	Navigate(ctx context.Context, url string) error
	Close(ctx context.Context) error
}

// Launcher acquires a fresh PageSession.
type Launcher interface {
	Launch(ctx context.Context) (PageSession, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (PageSession, error)

// Launch calls f(ctx).
func (f LauncherFunc) Launch(ctx context.Context) (PageSession, error) {
	return f(ctx)
}

// Orchestrator runs one job from input verification to the reported result.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	launcher Launcher
	reporter reporting.Reporter
	// pollerOpts is appended to the poller's options; tests use it to inject a sleep.
	pollerOpts []job.PollerOption
}

// New creates a new Orchestrator. All dependencies are required.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	launcher Launcher,
	reporter reporting.Reporter,
	pollerOpts ...job.PollerOption,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		launcher == nil ||
		reporter == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger.Named("orchestrator"),
		launcher:   launcher,
		reporter:   reporter,
		pollerOpts: pollerOpts,
	}, nil
}

// Run executes the job in the given mode. Inputs are verified before a browser is
// launched, and the browser is released on every path once it has been acquired.
// A timed-out job is not an error; it is reported and returned in the Outcome.
func (o *Orchestrator) Run(ctx context.Context, mode job.Mode) (outcome job.Outcome, err error) {
	runID := uuid.New().String()
	log := o.logger.With(zap.String("run_id", runID), zap.String("mode", mode.String()))

	inputs, err := job.Inputs{
		Source: o.cfg.Inputs.Source,
		Target: o.cfg.Inputs.Target,
		Trace:  o.cfg.Inputs.Trace,
	}.Resolve()
	if err != nil {
		return outcome, err
	}
	if err := inputs.Verify(mode); err != nil {
		return outcome, err
	}

	pollOpts, err := pollOptions(o.cfg.Poll)
	if err != nil {
		return outcome, err
	}

	log.Info("Starting job.",
		zap.String("url", o.cfg.Page.URL),
		zap.String("preset", o.cfg.Poll.Preset),
		zap.Duration("interval", pollOpts.Interval),
		zap.Int("max_attempts", pollOpts.MaxAttempts),
	)

	session, err := o.launcher.Launch(ctx)
	if err != nil {
		return outcome, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	log = log.With(zap.String("session_id", session.ID()))
	defer func() {
		// Close detaches from ctx internally, so a cancelled run still tears the browser down.
		if closeErr := session.Close(context.Background()); closeErr != nil {
			log.Warn("Error while closing browser session.", zap.Error(closeErr))
		}
	}()

	if err := session.Navigate(ctx, o.cfg.Page.URL); err != nil {
		return outcome, err
	}

	sel := o.cfg.Page.Selectors
	submitter := job.NewSubmitter(job.Controls{
		SourceEmpty: sel.SourceEmpty,
		TargetEmpty: sel.TargetEmpty,
		SourceFile:  sel.SourceFile,
		TargetFile:  sel.TargetFile,
		TraceFile:   sel.TraceFile,
		Execute:     sel.Execute,
	}, log)
	if err := submitter.Submit(ctx, session, mode, inputs); err != nil {
		return outcome, err
	}

	opts := append([]job.PollerOption{job.WithObserver(o.reporter.Observe)}, o.pollerOpts...)
	poller := job.NewPoller(pollOpts, sel.Status, log, opts...)
	outcome, err = poller.Poll(ctx, session)
	if err != nil {
		return outcome, err
	}

	if err := o.reporter.Report(outcome); err != nil {
		return outcome, err
	}
	log.Info("Job finished.", zap.Stringer("state", outcome.State), zap.Int("attempts", outcome.Attempts))
	return outcome, nil
}

// pollOptions converts resolved poll configuration into poller options.
func pollOptions(p config.PollConfig) (job.PollOptions, error) {
	resolved, err := p.Resolve()
	if err != nil {
		return job.PollOptions{}, err
	}
	if err := resolved.Validate(); err != nil {
		return job.PollOptions{}, fmt.Errorf("invalid poll configuration: %w", err)
	}
	return job.PollOptions{
		Interval:         resolved.Interval,
		MaxAttempts:      resolved.MaxAttempts,
		EmitIntermediate: resolved.Emit(),
	}, nil
}
