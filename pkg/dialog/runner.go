package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/domain"
)

// Events receives notifications about dialog lifecycle transitions.
// All fields are optional; nil funcs are skipped. Used for observability
// (metrics, audit) without coupling the runner to a collector.
type Events struct {
	DialogBegun   func(name string)
	DialogEnded   func(name string)
	PromptRetried func(prompt string)
	Cancelled     func(depth int)
}

// Runner drives dialog stacks: it begins dialogs, continues suspended ones
// against inbound input, and cancels. It holds no per-conversation state of
// its own; everything lives in the TurnContext's stack.
type Runner struct {
	registry *Registry
	events   Events
	logger   *slog.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithEvents registers lifecycle callbacks.
func WithEvents(events Events) RunnerOption {
	return func(r *Runner) {
		r.events = events
	}
}

// WithLogger sets a structured logger for the runner.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin looks up name, pushes a new frame at step 0, and runs it
// immediately. Beginning while another dialog is active pushes a nested
// frame; it does not replace the running dialog.
func (r *Runner) Begin(ctx context.Context, tc *TurnContext, name string, opts any) error {
	if _, err := r.registry.Lookup(name); err != nil {
		return err
	}

	tc.Stack().Push(domain.NewFrame(name))
	r.logger.Debug("dialog begun", "dialog", name, "depth", tc.Stack().Depth())
	if r.events.DialogBegun != nil {
		r.events.DialogBegun(name)
	}

	return r.run(ctx, tc, StepInput{Kind: InputBegin, Value: opts})
}

// Continue resumes the active dialog with the inbound activity. With an
// idle stack it is a no-op. A suspended prompt validates the input first:
// rejection re-issues the prompt without advancing; acceptance runs the
// next step with the validated value.
func (r *Runner) Continue(ctx context.Context, tc *TurnContext, incoming domain.Activity) error {
	frame := tc.Stack().Active()
	if frame == nil {
		return nil
	}

	if frame.Pending != nil {
		prompt, err := r.registry.lookupPrompt(frame.Pending.Prompt)
		if err != nil {
			return err
		}

		res := prompt.Validate(incoming.Text)
		if !res.Accepted {
			if r.events.PromptRetried != nil {
				r.events.PromptRetried(frame.Pending.Prompt)
			}
			retry := res.Retry
			if retry == "" {
				retry = frame.Pending.Text
			}
			r.logger.Debug("prompt rejected", "prompt", frame.Pending.Prompt)
			return tc.SendText(ctx, retry)
		}

		frame.Pending = nil
		return r.run(ctx, tc, StepInput{Kind: InputResume, Value: res.Value})
	}

	return r.run(ctx, tc, StepInput{Kind: InputResume, Value: incoming.Text})
}

// CancelAll clears the entire stack unconditionally.
func (r *Runner) CancelAll(tc *TurnContext) {
	depth := tc.Stack().Depth()
	if depth > 0 && r.events.Cancelled != nil {
		r.events.Cancelled(depth)
	}
	tc.Stack().Clear()
}

// run executes steps until the turn suspends (prompt issued), the stack
// empties, or a step errors. Child dialog results flow back into parent
// frames as resume input.
func (r *Runner) run(ctx context.Context, tc *TurnContext, input StepInput) error {
	for {
		frame := tc.Stack().Active()
		if frame == nil {
			return nil
		}

		d, err := r.registry.Lookup(frame.Dialog)
		if err != nil {
			return err
		}

		switch d := d.(type) {
		case *Prompt:
			done, next, err := r.runPrompt(ctx, tc, frame, d, input)
			if err != nil || !done {
				return err
			}
			input = next

		case *Waterfall:
			done, next, err := r.runWaterfallStep(ctx, tc, frame, d, input)
			if err != nil || !done {
				return err
			}
			input = next

		default:
			return fmt.Errorf("dialog %q has unsupported type %T", frame.Dialog, d)
		}
	}
}

// runPrompt handles a prompt begun directly as a dialog: on begin it issues
// the prompt text; on resume the validated value becomes the dialog result.
// Returns done=true with the parent's resume input when the frame popped.
func (r *Runner) runPrompt(ctx context.Context, tc *TurnContext, frame *domain.Frame, p *Prompt, input StepInput) (bool, StepInput, error) {
	if input.Kind == InputResume {
		return r.endActive(tc, input.Value)
	}

	frame.Pending = &domain.PendingPrompt{Prompt: p.Name(), Text: p.text}
	return false, StepInput{}, tc.SendText(ctx, p.text)
}

// runWaterfallStep executes the frame's next step. Returns done=true with
// the follow-up input when the loop should keep running.
func (r *Runner) runWaterfallStep(ctx context.Context, tc *TurnContext, frame *domain.Frame, w *Waterfall, input StepInput) (bool, StepInput, error) {
	idx := frame.Step
	if idx >= len(w.steps) {
		// Steps exhausted without an explicit End: implicit nil result.
		return r.endActive(tc, nil)
	}

	sc := &StepContext{Input: input, turn: tc, frame: frame}
	res, err := w.steps[idx](ctx, sc)
	if err != nil {
		return false, StepInput{}, err
	}

	switch res.kind {
	case resultNext:
		frame.Step = idx + 1
		return true, StepInput{Kind: InputNone}, nil

	case resultPrompt:
		if _, err := r.registry.lookupPrompt(res.pending.Prompt); err != nil {
			return false, StepInput{}, err
		}
		frame.Step = idx + 1
		frame.Pending = res.pending
		return false, StepInput{}, tc.SendText(ctx, res.pending.Text)

	case resultBegin:
		frame.Step = idx + 1
		return false, StepInput{}, r.Begin(ctx, tc, res.child, res.childOpts)

	case resultEnd:
		return r.endActive(tc, res.result)

	default:
		return false, StepInput{}, fmt.Errorf("dialog %q step %d: unknown step result", w.name, idx)
	}
}

// endActive pops the active frame and prepares the parent's resume input.
func (r *Runner) endActive(tc *TurnContext, result any) (bool, StepInput, error) {
	frame := tc.Stack().Pop()
	if frame != nil {
		r.logger.Debug("dialog ended", "dialog", frame.Dialog, "depth", tc.Stack().Depth())
		if r.events.DialogEnded != nil {
			r.events.DialogEnded(frame.Dialog)
		}
	}

	if tc.Stack().Active() == nil {
		return false, StepInput{}, nil
	}
	return true, StepInput{Kind: InputResume, Value: result}, nil
}
