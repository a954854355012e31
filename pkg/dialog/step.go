package dialog

import (
	"context"

	"github.com/parleykit/parley/pkg/domain"
)

// InputKind tags the input a step receives.
type InputKind int

const (
	// InputNone marks a step run with nothing to consume (fall-through
	// from the previous step).
	InputNone InputKind = iota

	// InputBegin marks the first step of a dialog; Value carries the
	// begin arguments (possibly nil).
	InputBegin

	// InputResume marks a step resumed with a result: a validated prompt
	// value or the end result of a child dialog.
	InputResume
)

// StepInput is the tagged input union passed to a step, replacing untyped
// "object args" parameters.
type StepInput struct {
	Kind  InputKind
	Value any
}

// Step is one unit of dialog logic. Given the accumulated frame state and
// an optional input, it decides how the dialog proceeds.
type Step func(ctx context.Context, sc *StepContext) (StepResult, error)

// StepContext is the step's window into the running turn: its frame-local
// values, its input, and the outbound channel.
type StepContext struct {
	// Input is what triggered this step run.
	Input StepInput

	turn  *TurnContext
	frame *domain.Frame
}

// Values returns the frame-local value bag steps use to pass data forward.
func (sc *StepContext) Values() map[string]any {
	if sc.frame.Values == nil {
		sc.frame.Values = make(map[string]any)
	}
	return sc.frame.Values
}

// SendText sends a message reply on the turn's conversation.
func (sc *StepContext) SendText(ctx context.Context, text string) error {
	return sc.turn.SendText(ctx, text)
}

// Turn exposes the enclosing turn context.
func (sc *StepContext) Turn() *TurnContext {
	return sc.turn
}

type resultKind int

const (
	resultNext resultKind = iota
	resultPrompt
	resultBegin
	resultEnd
)

// StepResult is the tagged outcome of a step run. Construct it with Next,
// PromptFor, BeginChild, or End.
type StepResult struct {
	kind      resultKind
	pending   *domain.PendingPrompt
	child     string
	childOpts any
	result    any
}

// Next advances to the following step in the same frame within this turn.
func Next() StepResult {
	return StepResult{kind: resultNext}
}

// PromptFor suspends the frame on the registered prompt name, sending text
// to the user. The prompt's validator evaluates the next inbound message;
// options is an open bag forwarded to the pending prompt record.
func PromptFor(prompt, text string, options map[string]any) StepResult {
	return StepResult{kind: resultPrompt, pending: &domain.PendingPrompt{
		Prompt:  prompt,
		Text:    text,
		Options: options,
	}}
}

// BeginChild pushes a nested dialog. The current frame resumes at its next
// step with the child's end result once the child finishes.
func BeginChild(name string, opts any) StepResult {
	return StepResult{kind: resultBegin, child: name, childOpts: opts}
}

// End pops the active frame, handing result to the parent frame (or ending
// the conversation's dialog entirely when no parent exists).
func End(result any) StepResult {
	return StepResult{kind: resultEnd, result: result}
}
