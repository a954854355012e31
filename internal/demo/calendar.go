// Package demo wires a small calendar bot: the dialogs, the keyword
// recognizer, and the settings the chat CLI and the scenario tests share.
package demo

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/state"
)

// Dialog and prompt names registered by RegisterCalendarDialogs.
const (
	DialogAdd      = "Calendar_Add"
	DialogFind     = "Calendar_Find"
	DialogFallback = "None"
	PromptTitle    = "titlePrompt"
)

const (
	titlesKey      = "eventTitles"
	titleMinLength = 3
	titleRetryText = "Event titles need at least 3 characters. What should I call it?"
)

// TitlesProperty returns the typed accessor for a user's saved event titles.
func TitlesProperty(states *state.Store) *state.Property[[]string] {
	return state.NewProperty(states, titlesKey, func() []string { return nil })
}

// AddOptions are the begin arguments Calendar_Add accepts. A valid Title
// skips the prompt; begin callers pass loosely-typed maps (MCP tools, HTTP
// payloads) which are decoded through dialog.DecodeOptions.
type AddOptions struct {
	Title string `json:"title"`
}

// RegisterCalendarDialogs populates the registry with the calendar dialogs.
// Saved titles live in the sending user's state, so they follow the user
// across conversations.
func RegisterCalendarDialogs(registry *dialog.Registry, states *state.Store) error {
	titles := TitlesProperty(states)
	titleValidator := dialog.MinLength(titleMinLength, titleRetryText)

	titlePrompt := dialog.NewPrompt(PromptTitle, "What should I call the event?", titleValidator)

	saveTitle := func(ctx context.Context, sc *dialog.StepContext, title string) (dialog.StepResult, error) {
		user := domain.UserPrincipal(sc.Turn().Activity().From.ID)

		saved, err := titles.Get(ctx, user)
		if err != nil {
			return dialog.StepResult{}, err
		}
		saved = append(saved, title)
		if err := titles.Set(ctx, user, saved); err != nil {
			return dialog.StepResult{}, err
		}

		if err := sc.SendText(ctx, fmt.Sprintf("Added %q to your calendar.", title)); err != nil {
			return dialog.StepResult{}, err
		}
		return dialog.End(title), nil
	}

	add := dialog.NewWaterfall(DialogAdd,
		func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
			if sc.Input.Kind == dialog.InputBegin && sc.Input.Value != nil {
				var opts AddOptions
				if err := dialog.DecodeOptions(sc.Input.Value, &opts); err != nil {
					return dialog.StepResult{}, err
				}
				if res := titleValidator(opts.Title); res.Accepted {
					return saveTitle(ctx, sc, res.Value.(string))
				}
			}
			return dialog.PromptFor(PromptTitle, "What should I call the event?", nil), nil
		},
		func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
			title, _ := sc.Input.Value.(string)
			return saveTitle(ctx, sc, title)
		},
	)

	find := dialog.NewWaterfall(DialogFind,
		func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
			user := domain.UserPrincipal(sc.Turn().Activity().From.ID)
			saved, err := titles.Get(ctx, user)
			if err != nil {
				return dialog.StepResult{}, err
			}

			if len(saved) == 0 {
				if err := sc.SendText(ctx, "Your calendar is empty."); err != nil {
					return dialog.StepResult{}, err
				}
				return dialog.End(nil), nil
			}

			var b strings.Builder
			b.WriteString("Your events:\n")
			for _, title := range saved {
				fmt.Fprintf(&b, "- %s\n", title)
			}
			if err := sc.SendText(ctx, strings.TrimRight(b.String(), "\n")); err != nil {
				return dialog.StepResult{}, err
			}
			return dialog.End(saved), nil
		},
	)

	fallback := dialog.NewWaterfall(DialogFallback,
		func(ctx context.Context, sc *dialog.StepContext) (dialog.StepResult, error) {
			text := "Sorry, I didn't understand that. Try \"add an event\" or \"what's on my calendar\"."
			if err := sc.SendText(ctx, text); err != nil {
				return dialog.StepResult{}, err
			}
			return dialog.End(nil), nil
		},
	)

	for _, d := range []dialog.Dialog{titlePrompt, add, find, fallback} {
		if err := registry.Register(d); err != nil {
			return err
		}
	}
	return nil
}
