package dialog

import (
	"context"

	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
)

// TurnContext carries the mutable state of one turn: the inbound activity,
// the conversation's dialog stack, and whether anything has been sent yet.
// It is not safe for concurrent use; the host serializes turns per
// conversation.
type TurnContext struct {
	activity  domain.Activity
	stack     *domain.Stack
	transport ports.Transport
	responded bool
}

// NewTurnContext builds the context for processing activity against stack.
func NewTurnContext(activity domain.Activity, stack *domain.Stack, transport ports.Transport) *TurnContext {
	return &TurnContext{
		activity:  activity,
		stack:     stack,
		transport: transport,
	}
}

// Activity returns the inbound activity for this turn.
func (tc *TurnContext) Activity() domain.Activity {
	return tc.activity
}

// Conversation returns the conversation the turn belongs to.
func (tc *TurnContext) Conversation() string {
	return tc.activity.Conversation
}

// Stack returns the conversation's dialog stack.
func (tc *TurnContext) Stack() *domain.Stack {
	return tc.stack
}

// Responded reports whether any outbound activity has been sent this turn.
func (tc *TurnContext) Responded() bool {
	return tc.responded
}

// SendText replies to the inbound activity with a plain message.
func (tc *TurnContext) SendText(ctx context.Context, text string) error {
	return tc.SendActivity(ctx, domain.NewReply(tc.activity, text))
}

// SendActivity delivers an outbound activity and marks the turn responded.
func (tc *TurnContext) SendActivity(ctx context.Context, activity domain.Activity) error {
	if err := tc.transport.SendActivity(ctx, tc.Conversation(), activity); err != nil {
		return err
	}
	tc.responded = true
	return nil
}
