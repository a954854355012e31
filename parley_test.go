package parley_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/internal/demo"
	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/transport"
)

func TestFacade_Integration(t *testing.T) {
	replies := transport.NewRecorder()
	bot := parley.New(memory.NewStore(), demo.NewCalendarRecognizer(), replies)
	require.NoError(t, demo.RegisterCalendarDialogs(bot.Registry(), bot.States()))

	ctx := context.Background()

	// Bot joins: welcome.
	botAccount := domain.ChannelAccount{ID: "bot-1"}
	join := domain.NewConversationUpdate("conv-1", botAccount)
	join.Recipient = botAccount
	require.NoError(t, bot.OnTurn(ctx, join))
	assert.Equal(t, []string{"Hello and welcome!"}, texts(replies.Drain("conv-1")))

	// Intent dispatch begins the add dialog, which prompts for a title.
	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "add an event")))
	assert.Equal(t, []string{"What should I call the event?"}, texts(replies.Drain("conv-1")))

	// The reply resumes the suspended dialog.
	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "Morning Standup")))
	got := texts(replies.Drain("conv-1"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Morning Standup")

	// Listing reads back the user-scoped state written by the add dialog.
	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "what's on my calendar")))
	got = texts(replies.Drain("conv-1"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Morning Standup")
}

func TestFacade_CancelKeyword(t *testing.T) {
	replies := transport.NewRecorder()
	bot := parley.New(memory.NewStore(), demo.NewCalendarRecognizer(), replies)
	require.NoError(t, demo.RegisterCalendarDialogs(bot.Registry(), bot.States()))

	ctx := context.Background()
	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "add an event")))
	replies.Drain("conv-1")

	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "cancel")))
	assert.Equal(t, []string{"Cancelling."}, texts(replies.Drain("conv-1")))

	// The abandoned dialog is gone: new text falls back instead of resuming.
	require.NoError(t, bot.OnTurn(ctx, domain.NewMessage("conv-1", "alice", "gibberish")))
	got := texts(replies.Drain("conv-1"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "didn't understand")
}

func texts(activities []domain.Activity) []string {
	var out []string
	for _, a := range activities {
		out = append(out, a.Text)
	}
	return out
}
