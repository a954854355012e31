package parley

import (
	"context"
	"log/slog"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/bot"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/ports"
	"github.com/parleykit/parley/pkg/session"
	"github.com/parleykit/parley/pkg/state"
)

// Version is the library version, overridable at build time via ldflags.
var Version = "0.1.0"

// Bot bundles the engine's moving parts behind one handle: state store,
// dialog registry, runner, dispatcher, and per-conversation turn
// serialization.
type Bot struct {
	states     *state.Store
	registry   *dialog.Registry
	dispatcher *bot.Dispatcher
	sessions   *session.Manager

	settings bot.Settings
	events   dialog.Events
	locker   ports.DistributedLocker
	turnHook func(outcome string)
	logger   *slog.Logger
}

// Option configures the Bot.
type Option func(*Bot)

// WithSettings overrides the dispatcher behavior (welcome text, cancel
// keyword, intent threshold).
func WithSettings(s bot.Settings) Option {
	return func(b *Bot) {
		b.settings = s
	}
}

// WithLogger sets a structured logger shared by the engine's parts.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithDialogEvents registers dialog lifecycle callbacks (metrics, audit).
func WithDialogEvents(events dialog.Events) Option {
	return func(b *Bot) {
		b.events = events
	}
}

// WithLocker enables distributed turn locking for multi-replica hosts.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bot) {
		b.locker = locker
	}
}

// WithTurnHook registers a callback invoked once per processed turn.
func WithTurnHook(fn func(outcome string)) Option {
	return func(b *Bot) {
		b.turnHook = fn
	}
}

// New assembles a bot over the given storage backend, recognizer, and
// outbound transport. Dialogs are registered on Registry() before the first
// turn.
func New(backend ports.StateStore, recognizer ports.Recognizer, transport ports.Transport, opts ...Option) *Bot {
	b := &Bot{
		registry: dialog.NewRegistry(),
		settings: bot.DefaultSettings(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.states = state.New(backend, state.WithLogger(b.logger))

	runner := dialog.NewRunner(b.registry,
		dialog.WithEvents(b.events),
		dialog.WithLogger(b.logger),
	)

	dispatcherOpts := []bot.Option{
		bot.WithSettings(b.settings),
		bot.WithLogger(b.logger),
	}
	if b.turnHook != nil {
		dispatcherOpts = append(dispatcherOpts, bot.WithTurnHook(b.turnHook))
	}
	b.dispatcher = bot.NewDispatcher(b.states, runner, recognizer, transport, dispatcherOpts...)

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(sessionOpts...)

	return b
}

// OnTurn processes one inbound activity, serialized per conversation.
func (b *Bot) OnTurn(ctx context.Context, activity domain.Activity) error {
	return b.sessions.RunTurn(ctx, activity.Conversation, func(ctx context.Context) error {
		return b.dispatcher.OnTurn(ctx, activity)
	})
}

// Registry returns the dialog registry for startup registration.
func (b *Bot) Registry() *dialog.Registry {
	return b.registry
}

// States returns the engine's state store handle.
func (b *Bot) States() *state.Store {
	return b.states
}

// Sessions returns the per-conversation turn serializer.
func (b *Bot) Sessions() *session.Manager {
	return b.sessions
}

// Dispatcher returns the raw turn dispatcher. Hosts that serialize turns
// themselves (e.g. the HTTP adapter) drive it directly.
func (b *Bot) Dispatcher() *bot.Dispatcher {
	return b.dispatcher
}
