// Package tui holds the chat CLI's terminal presentation helpers.
package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown bot replies for the
// terminal.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
