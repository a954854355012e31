package ports

import (
	"context"

	"github.com/parleykit/parley/pkg/domain"
)

// Recognizer scores a message text against the known intents.
// Scores are in [0,1]. The engine treats the recognizer as a black box and
// never retries failed calls.
type Recognizer interface {
	Recognize(ctx context.Context, conversation, text string) (domain.RankedIntents, error)
}
