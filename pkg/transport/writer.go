package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/parleykit/parley/pkg/domain"
)

// RenderFunc optionally transforms a reply text before writing (e.g.
// markdown rendering for a terminal).
type RenderFunc func(text string) (string, error)

// Writer prints outbound message activities to an io.Writer. Used by the
// chat CLI as its messaging channel.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	render RenderFunc
}

// NewWriter creates a writer transport. render may be nil.
func NewWriter(w io.Writer, render RenderFunc) *Writer {
	return &Writer{w: w, render: render}
}

// SendActivity writes the activity's text, one message per line.
func (t *Writer) SendActivity(_ context.Context, _ string, activity domain.Activity) error {
	if activity.Type != domain.ActivityMessage {
		return nil
	}

	text := activity.Text
	if t.render != nil {
		rendered, err := t.render(text)
		if err == nil {
			text = rendered
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, text)
	return err
}
