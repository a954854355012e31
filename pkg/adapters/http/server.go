// Package http exposes the bot over a small REST surface: a synchronous
// turn endpoint plus conversation inspection and reset.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/session"
	"github.com/parleykit/parley/pkg/state"
	"github.com/parleykit/parley/pkg/transport"
)

// Bot is the turn entry point the server drives.
type Bot interface {
	OnTurn(ctx context.Context, activity domain.Activity) error
}

// Server handles the REST routes. Replies are captured per turn and
// returned synchronously in the response body, which suits request/response
// channels (webchat, tests); streaming channels use their own transport.
type Server struct {
	bot      Bot
	replies  *transport.Recorder
	sessions *session.Manager
	states   *state.Store
	registry *dialog.Registry
	logger   *slog.Logger

	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts a handler at /metrics (typically
// promhttp.Handler()).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates the REST server. replies must be the same Recorder the
// bot's dispatcher sends through.
func NewServer(bot Bot, replies *transport.Recorder, sessions *session.Manager, states *state.Store, registry *dialog.Registry, opts ...Option) *Server {
	s := &Server{
		bot:      bot,
		replies:  replies,
		sessions: sessions,
		states:   states,
		registry: registry,
		logger:   logging.NewNop(),
		metrics:  promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/turn", s.handleTurn)
	r.Get("/v1/dialogs", s.handleListDialogs)
	r.Get("/v1/conversations/{conversationID}", s.handleGetConversation)
	r.Delete("/v1/conversations/{conversationID}", s.handleResetConversation)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics)

	return r
}

// turnRequest is the POST /v1/turn body. Type defaults to "message".
type turnRequest struct {
	Type         domain.ActivityType     `json:"type,omitempty"`
	Conversation string                  `json:"conversation"`
	From         domain.ChannelAccount   `json:"from"`
	Recipient    domain.ChannelAccount   `json:"recipient,omitempty"`
	Text         string                  `json:"text,omitempty"`
	MembersAdded []domain.ChannelAccount `json:"members_added,omitempty"`
}

type turnResponse struct {
	Replies []domain.Activity `json:"replies"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("turn: invalid request body", "err", err)
		return
	}
	if body.Conversation == "" {
		http.Error(w, "conversation is required", http.StatusBadRequest)
		return
	}

	activity := domain.NewMessage(body.Conversation, body.From.ID, body.Text)
	activity.From = body.From
	activity.Recipient = body.Recipient
	if body.Type != "" {
		activity.Type = body.Type
	}
	activity.MembersAdded = body.MembersAdded

	err := s.sessions.RunTurn(r.Context(), body.Conversation, func(ctx context.Context) error {
		return s.bot.OnTurn(ctx, activity)
	})
	if err != nil {
		s.replies.Drain(body.Conversation)
		if errors.Is(err, domain.ErrUnknownDialog) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "turn processing failed", http.StatusInternalServerError)
		s.logger.Error("turn failed", "conversation", body.Conversation, "err", err)
		return
	}

	resp := turnResponse{Replies: s.replies.Drain(body.Conversation)}
	if resp.Replies == nil {
		resp.Replies = []domain.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("turn response encode failed", "err", err)
	}
}

func (s *Server) handleListDialogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"dialogs": s.registry.Names()})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	principal := domain.ConversationPrincipal(chi.URLParam(r, "conversationID"))

	bag, err := s.states.Backend().Load(r.Context(), principal)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "load failed", http.StatusInternalServerError)
		s.logger.Error("conversation load failed", "principal", principal, "err", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(bag)
}

func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	conversation := chi.URLParam(r, "conversationID")
	principal := domain.ConversationPrincipal(conversation)

	err := s.sessions.RunTurn(r.Context(), conversation, func(ctx context.Context) error {
		return s.states.Delete(ctx, principal)
	})
	if err != nil {
		http.Error(w, "reset failed", http.StatusInternalServerError)
		s.logger.Error("conversation reset failed", "principal", principal, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
