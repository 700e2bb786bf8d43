// internal/job/submission.go
// Staging of the job inputs on the remote page. Planning is kept separate from
// execution so the per-mode decisions can be inspected without a browser.
package job

import (
	"context"

	"go.uber.org/zap"
)

// Page is the subset of browser capabilities the submission needs.
type Page interface {
	Click(ctx context.Context, selector string) error
	UploadFile(ctx context.Context, selector, path string) error
}

// Slot names the page input an Action targets.
type Slot string

const (
	SlotSource  Slot = "source"
	SlotTarget  Slot = "target"
	SlotTrace   Slot = "trace"
	SlotExecute Slot = "execute"
)

// ActionKind is the type of interaction an Action performs.
type ActionKind string

const (
	// ActionEmpty selects the "no file" option of a model slot.
	ActionEmpty ActionKind = "empty"
	// ActionAttach uploads a local file into a file input.
	ActionAttach ActionKind = "attach"
	// ActionClick presses a control.
	ActionClick ActionKind = "click"
)

// Action is one planned page interaction.
type Action struct {
	Slot     Slot
	Kind     ActionKind
	Selector string
	// Path is set only for ActionAttach.
	Path string
}

// Controls maps the page's named controls to CSS selectors.
type Controls struct {
	SourceEmpty string
	TargetEmpty string
	SourceFile  string
	TargetFile  string
	TraceFile   string
	Execute     string
}

// DefaultControls matches the ids used by exec-trace-novis.html.
func DefaultControls() Controls {
	return Controls{
		SourceEmpty: "#srcModelEmpty",
		TargetEmpty: "#tgtModelEmpty",
		SourceFile:  "#srcModelFileIn",
		TargetFile:  "#tgtModelFileIn",
		TraceFile:   "#traceFileIn",
		Execute:     "#execTrace",
	}
}

// PlanSubmission returns the ordered interactions for mode: one source action, one
// target action, the trace upload and finally the execute click.
func PlanSubmission(mode Mode, in Inputs, c Controls) []Action {
	plan := make([]Action, 0, 4)

	if mode.NeedsSource() {
		plan = append(plan, Action{Slot: SlotSource, Kind: ActionAttach, Selector: c.SourceFile, Path: in.Source})
	} else {
		plan = append(plan, Action{Slot: SlotSource, Kind: ActionEmpty, Selector: c.SourceEmpty})
	}

	if mode.NeedsTarget() {
		plan = append(plan, Action{Slot: SlotTarget, Kind: ActionAttach, Selector: c.TargetFile, Path: in.Target})
	} else {
		plan = append(plan, Action{Slot: SlotTarget, Kind: ActionEmpty, Selector: c.TargetEmpty})
	}

	plan = append(plan,
		Action{Slot: SlotTrace, Kind: ActionAttach, Selector: c.TraceFile, Path: in.Trace},
		Action{Slot: SlotExecute, Kind: ActionClick, Selector: c.Execute},
	)
	return plan
}

// Submitter stages the inputs and triggers execution.
type Submitter struct {
	controls Controls
	logger   *zap.Logger
}

// NewSubmitter creates a Submitter for the given page controls.
func NewSubmitter(controls Controls, logger *zap.Logger) *Submitter {
	return &Submitter{controls: controls, logger: logger.Named("submitter")}
}

// Submit verifies the inputs required by mode and then performs the planned actions in
// order. The first failing action aborts the submission.
func (s *Submitter) Submit(ctx context.Context, page Page, mode Mode, in Inputs) error {
	if err := in.Verify(mode); err != nil {
		return err
	}

	for _, a := range PlanSubmission(mode, in, s.controls) {
		s.logger.Debug("Performing page action.",
			zap.String("slot", string(a.Slot)),
			zap.String("kind", string(a.Kind)),
			zap.String("selector", a.Selector),
		)

		var err error
		switch a.Kind {
		case ActionAttach:
			err = page.UploadFile(ctx, a.Selector, a.Path)
		default:
			err = page.Click(ctx, a.Selector)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &Error{Code: ErrCodePageInteraction, Op: string(a.Slot), Err: err}
		}
	}

	s.logger.Info("Job submitted.", zap.String("mode", mode.String()))
	return nil
}
