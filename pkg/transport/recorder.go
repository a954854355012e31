package transport

import (
	"context"
	"sync"

	"github.com/parleykit/parley/pkg/domain"
)

// Recorder collects outbound activities keyed by conversation.
// Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent map[string][]domain.Activity
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		sent: make(map[string][]domain.Activity),
	}
}

// SendActivity records the activity under its conversation.
func (r *Recorder) SendActivity(_ context.Context, conversation string, activity domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[conversation] = append(r.sent[conversation], activity)
	return nil
}

// Drain returns and clears the recorded activities for a conversation.
func (r *Recorder) Drain(conversation string) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent[conversation]
	delete(r.sent, conversation)
	return out
}

// Sent returns a snapshot of the recorded activities for a conversation
// without clearing them.
func (r *Recorder) Sent(conversation string) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Activity, len(r.sent[conversation]))
	copy(out, r.sent[conversation])
	return out
}

// Texts returns just the message texts recorded for a conversation.
func (r *Recorder) Texts(conversation string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, 0, len(r.sent[conversation]))
	for _, a := range r.sent[conversation] {
		texts = append(texts, a.Text)
	}
	return texts
}
