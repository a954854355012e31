package demo

import (
	"context"
	"strings"

	"github.com/parleykit/parley/pkg/domain"
)

// KeywordRecognizer is a deterministic ports.Recognizer: it scores intents
// by keyword hits. Good enough for the CLI demo and offline tests; a real
// deployment swaps in the hosted classifier client.
type KeywordRecognizer struct {
	keywords map[string][]string
}

// NewCalendarRecognizer returns a recognizer for the calendar intents.
func NewCalendarRecognizer() *KeywordRecognizer {
	return &KeywordRecognizer{
		keywords: map[string][]string{
			DialogAdd:  {"add", "new", "create", "schedule"},
			DialogFind: {"find", "show", "list", "what's on", "calendar"},
		},
	}
}

// Recognize scores each intent by the fraction of its keywords found in the
// text. Unmatched text yields an empty result, which the dispatcher maps to
// the fallback intent.
func (r *KeywordRecognizer) Recognize(_ context.Context, _ string, text string) (domain.RankedIntents, error) {
	lowered := strings.ToLower(text)

	var intents domain.RankedIntents
	for intent, words := range r.keywords {
		hits := 0
		for _, w := range words {
			if strings.Contains(lowered, w) {
				hits++
			}
		}
		if hits > 0 {
			intents = append(intents, domain.Intent{
				Name:  intent,
				Score: float64(hits) / float64(len(words)),
			})
		}
	}
	return intents, nil
}
