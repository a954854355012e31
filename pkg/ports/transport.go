package ports

import (
	"context"

	"github.com/parleykit/parley/pkg/domain"
)

// Transport delivers outbound activities to the messaging channel.
// Errors propagate to the caller unchanged; retry policy belongs to the
// transport, not the engine.
type Transport interface {
	SendActivity(ctx context.Context, conversation string, activity domain.Activity) error
}
