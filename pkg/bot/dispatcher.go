package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
	"github.com/parleykit/parley/pkg/state"
)

// StackKey is the conversation bag key the dialog stack persists under.
const StackKey = "dialogState"

// Dispatcher routes inbound turns: welcome messages on membership changes,
// cancellation, continuation of the active dialog, and intent-triggered
// dialog starts. The state store handle is passed at construction and never
// reached through ambient references.
type Dispatcher struct {
	states     *state.Store
	stackProp  *state.Property[*domain.Stack]
	runner     *dialog.Runner
	recognizer ports.Recognizer
	transport  ports.Transport
	settings   Settings
	logger     *slog.Logger

	// turnDone is invoked after every processed turn with an outcome
	// label ("welcome", "continued", "dispatched", "cancelled", "error").
	turnDone func(outcome string)
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithSettings overrides the default dispatcher behavior.
func WithSettings(s Settings) Option {
	return func(d *Dispatcher) {
		d.settings = s
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTurnHook registers a callback invoked once per processed turn.
func WithTurnHook(fn func(outcome string)) Option {
	return func(d *Dispatcher) {
		d.turnDone = fn
	}
}

// NewDispatcher wires the dispatcher from its collaborators.
func NewDispatcher(states *state.Store, runner *dialog.Runner, recognizer ports.Recognizer, transport ports.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		states:     states,
		runner:     runner,
		recognizer: recognizer,
		transport:  transport,
		settings:   DefaultSettings(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.stackProp = state.NewProperty(states, StackKey, domain.NewStack)
	return d
}

// OnTurn is the sole entry point per inbound activity. The host must
// serialize calls per conversation; turns for different conversations may
// run in parallel.
func (d *Dispatcher) OnTurn(ctx context.Context, activity domain.Activity) error {
	switch activity.Type {
	case domain.ActivityConversationUpdate:
		return d.onConversationUpdate(ctx, activity)
	case domain.ActivityMessage:
		return d.onMessage(ctx, activity)
	default:
		d.logger.Debug("ignoring activity", "type", activity.Type)
		return nil
	}
}

// onConversationUpdate greets when the bot itself joins the conversation.
// No dialog state is touched.
func (d *Dispatcher) onConversationUpdate(ctx context.Context, activity domain.Activity) error {
	for _, member := range activity.MembersAdded {
		if member.ID != activity.Recipient.ID {
			continue
		}
		welcome := domain.NewReply(activity, d.settings.WelcomeText)
		if err := d.transport.SendActivity(ctx, activity.Conversation, welcome); err != nil {
			return err
		}
		d.emit("welcome")
		return nil
	}
	return nil
}

func (d *Dispatcher) onMessage(ctx context.Context, activity domain.Activity) error {
	principal := domain.ConversationPrincipal(activity.Conversation)

	stack, err := d.stackProp.Get(ctx, principal)
	if err != nil {
		d.emit("error")
		return err
	}

	tc := dialog.NewTurnContext(activity, stack, d.transport)
	outcome := "unhandled"

	// Cancellation keyword: acknowledge (or report nothing to cancel) and
	// reset. Processing falls through, but the acknowledgement counts as
	// the turn's response, which gates the remaining stages.
	if d.isCancel(activity.Text) {
		if !stack.Idle() {
			if err := tc.SendText(ctx, d.settings.CancelAck); err != nil {
				d.emit("error")
				return err
			}
			d.runner.CancelAll(tc)
		} else {
			if err := tc.SendText(ctx, d.settings.NothingToCancel); err != nil {
				d.emit("error")
				return err
			}
		}
		outcome = "cancelled"
	}

	if !tc.Responded() {
		if err := d.runner.Continue(ctx, tc, activity); err != nil {
			d.emit("error")
			return err
		}
		if tc.Responded() {
			outcome = "continued"
		}
	}

	if !tc.Responded() {
		name, err := d.classify(ctx, activity)
		if err != nil {
			d.emit("error")
			return err
		}
		if err := d.runner.Begin(ctx, tc, name, nil); err != nil {
			d.emit("error")
			return err
		}
		outcome = "dispatched"
	}

	// Persist the (possibly mutated) stack exactly once. A failed turn
	// persists nothing beyond the materialized default.
	if err := d.stackProp.Set(ctx, principal, stack); err != nil {
		d.emit("error")
		return err
	}

	d.emit(outcome)
	return nil
}

// classify asks the recognizer for the top intent, substituting the
// fallback intent when the classifier is empty-handed or under-confident.
func (d *Dispatcher) classify(ctx context.Context, activity domain.Activity) (string, error) {
	intents, err := d.recognizer.Recognize(ctx, activity.Conversation, activity.Text)
	if err != nil {
		return "", err
	}

	top, ok := intents.Top()
	if !ok {
		d.logger.Debug("no intents recognized, falling back", "fallback", d.settings.FallbackIntent)
		return d.settings.FallbackIntent, nil
	}
	if top.Score < d.settings.ScoreThreshold {
		d.logger.Debug("low confidence, falling back", "intent", top.Name, "score", top.Score, "threshold", d.settings.ScoreThreshold)
		return d.settings.FallbackIntent, nil
	}
	return top.Name, nil
}

func (d *Dispatcher) isCancel(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), d.settings.CancelKeyword)
}

func (d *Dispatcher) emit(outcome string) {
	if d.turnDone != nil {
		d.turnDone(outcome)
	}
}
