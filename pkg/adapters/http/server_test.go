package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleykit/parley/internal/demo"
	httpadapter "github.com/parleykit/parley/pkg/adapters/http"
	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/bot"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/session"
	"github.com/parleykit/parley/pkg/state"
	"github.com/parleykit/parley/pkg/transport"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	states := state.New(memory.NewStore())
	registry := dialog.NewRegistry()
	require.NoError(t, demo.RegisterCalendarDialogs(registry, states))

	replies := transport.NewRecorder()
	dispatcher := bot.NewDispatcher(states, dialog.NewRunner(registry), demo.NewCalendarRecognizer(), replies)
	server := httpadapter.NewServer(dispatcher, replies, session.NewManager(), states, registry)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postTurn(t *testing.T, ts *httptest.Server, body map[string]any) (int, []domain.Activity) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/v1/turn", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var out struct {
		Replies []domain.Activity `json:"replies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out.Replies
}

func TestServer_TurnRoundtrip(t *testing.T) {
	ts := newTestServer(t)

	status, replies := postTurn(t, ts, map[string]any{
		"conversation": "conv-1",
		"from":         map[string]string{"id": "alice"},
		"text":         "add an event",
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, replies, 1)
	assert.Equal(t, "What should I call the event?", replies[0].Text)

	status, replies = postTurn(t, ts, map[string]any{
		"conversation": "conv-1",
		"from":         map[string]string{"id": "alice"},
		"text":         "Morning Standup",
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Morning Standup")
}

func TestServer_TurnRequiresConversation(t *testing.T) {
	ts := newTestServer(t)

	status, _ := postTurn(t, ts, map[string]any{
		"from": map[string]string{"id": "alice"},
		"text": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_WelcomeOnConversationUpdate(t *testing.T) {
	ts := newTestServer(t)

	status, replies := postTurn(t, ts, map[string]any{
		"type":          "conversationUpdate",
		"conversation":  "conv-1",
		"recipient":     map[string]string{"id": "bot-1"},
		"members_added": []map[string]string{{"id": "bot-1"}},
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, replies, 1)
	assert.Equal(t, bot.DefaultWelcomeText, replies[0].Text)
}

func TestServer_ListDialogs(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/dialogs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out["dialogs"], demo.DialogAdd)
	assert.Contains(t, out["dialogs"], demo.DialogFallback)
}

func TestServer_ConversationInspectAndReset(t *testing.T) {
	ts := newTestServer(t)

	status, _ := postTurn(t, ts, map[string]any{
		"conversation": "conv-9",
		"from":         map[string]string{"id": "alice"},
		"text":         "add an event",
	})
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(ts.URL + "/v1/conversations/conv-9")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bag map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bag))
	assert.Contains(t, bag, bot.StackKey)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/conversations/conv-9", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	gone, err := http.Get(ts.URL + "/v1/conversations/conv-9")
	require.NoError(t, err)
	gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
