package dialog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleykit/parley/pkg/dialog"
)

func TestMinLength(t *testing.T) {
	v := dialog.MinLength(3, "Too short.")

	res := v("  Standup  ")
	assert.True(t, res.Accepted)
	assert.Equal(t, "Standup", res.Value, "accepted value is trimmed")

	res = v(" ab ")
	assert.False(t, res.Accepted)
	assert.Equal(t, "Too short.", res.Retry)

	res = v("   ")
	assert.False(t, res.Accepted, "whitespace-only input never passes")

	// Length is counted in runes: two CJK characters are two characters,
	// not six bytes.
	res = v("日本")
	assert.False(t, res.Accepted)

	res = v("日本語")
	assert.True(t, res.Accepted)
	assert.Equal(t, "日本語", res.Value)
}

func TestPrompt_NilValidatorAcceptsVerbatim(t *testing.T) {
	p := dialog.NewPrompt("free", "Say anything.", nil)

	res := p.Validate("  raw input  ")
	assert.True(t, res.Accepted)
	assert.Equal(t, "  raw input  ", res.Value)
}

func TestPrompt_ValidatorTransformsValue(t *testing.T) {
	upper := func(raw string) dialog.PromptResult {
		if raw == "" {
			return dialog.Reject("Say something.")
		}
		return dialog.Accept(len(raw))
	}
	p := dialog.NewPrompt("length", "?", upper)

	res := p.Validate("four")
	assert.True(t, res.Accepted)
	assert.Equal(t, 4, res.Value, "validators may replace the raw value")
}
