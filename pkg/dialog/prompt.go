package dialog

import (
	"strings"
	"unicode/utf8"
)

// PromptResult is the outcome of validating a raw turn value against an
// active prompt: an accepted (possibly transformed) value, or a rejection
// carrying an optional retry message.
type PromptResult struct {
	Accepted bool
	Value    any
	Retry    string
}

// Accept marks the raw value as recognized.
func Accept(value any) PromptResult {
	return PromptResult{Accepted: true, Value: value}
}

// Reject refuses the value; retry (when non-empty) replaces the original
// prompt text on re-issue.
func Reject(retry string) PromptResult {
	return PromptResult{Retry: retry}
}

// Validator inspects a raw inbound text and accepts or rejects it. It must
// be pure: the engine owns retry delivery and state.
type Validator func(raw string) PromptResult

// MinLength returns a validator accepting trimmed input of at least n
// characters, rejecting shorter input with the given retry message.
// Length is counted in runes, not bytes.
func MinLength(n int, retry string) Validator {
	return func(raw string) PromptResult {
		trimmed := strings.TrimSpace(raw)
		if utf8.RuneCountInString(trimmed) < n {
			return Reject(retry)
		}
		return Accept(trimmed)
	}
}

// Prompt is a single-prompt dialog: issued, it suspends the conversation
// until its validator accepts an inbound message. Waterfall steps reference
// prompts by registered name via PromptFor.
type Prompt struct {
	name      string
	text      string
	validator Validator
}

// NewPrompt creates a prompt dialog. text is the message sent when the
// prompt is begun directly as a dialog (steps issuing PromptFor supply
// their own text). A nil validator accepts any input verbatim.
func NewPrompt(name, text string, validator Validator) *Prompt {
	return &Prompt{name: name, text: text, validator: validator}
}

// Name returns the registry name.
func (p *Prompt) Name() string {
	return p.name
}

// Validate runs the prompt's validator against raw input.
func (p *Prompt) Validate(raw string) PromptResult {
	if p.validator == nil {
		return Accept(raw)
	}
	return p.validator(raw)
}
