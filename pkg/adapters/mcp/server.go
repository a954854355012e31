// Package mcp exposes the bot as an MCP server, so agent runtimes can talk
// to it as a set of tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/pkg/dialog"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/session"
	"github.com/parleykit/parley/pkg/state"
	"github.com/parleykit/parley/pkg/transport"
)

// Bot is the turn entry point the MCP tools drive.
type Bot interface {
	OnTurn(ctx context.Context, activity domain.Activity) error
}

// Server wraps the bot and exposes it as MCP tools.
type Server struct {
	bot       Bot
	replies   *transport.Recorder
	sessions  *session.Manager
	states    *state.Store
	registry  *dialog.Registry
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server. replies must be the same Recorder the
// bot's dispatcher sends through.
func NewServer(bot Bot, replies *transport.Recorder, sessions *session.Manager, states *state.Store, registry *dialog.Registry) *Server {
	s := &Server{
		bot:       bot,
		replies:   replies,
		sessions:  sessions,
		states:    states,
		registry:  registry,
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send a user message into a conversation and return the bot's replies."),
		mcp.WithString("conversation", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("user", mcp.Required(), mcp.Description("Sending user identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
	), s.handleSendMessage)

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Inspect a conversation's persisted state, including its dialog stack."),
		mcp.WithString("conversation", mcp.Required(), mcp.Description("Conversation identifier")),
	), s.handleGetConversation)

	s.mcpServer.AddTool(mcp.NewTool("reset_conversation",
		mcp.WithDescription("Clear a conversation's persisted state and dialog stack."),
		mcp.WithString("conversation", mcp.Required(), mcp.Description("Conversation identifier")),
	), s.handleResetConversation)

	s.mcpServer.AddTool(mcp.NewTool("list_dialogs",
		mcp.WithDescription("List the registered dialog names."),
	), s.handleListDialogs)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversation, err := request.RequireString("conversation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	user, err := request.RequireString("user")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	activity := domain.NewMessage(conversation, user, text)
	err = s.sessions.RunTurn(ctx, conversation, func(ctx context.Context) error {
		return s.bot.OnTurn(ctx, activity)
	})
	if err != nil {
		s.replies.Drain(conversation)
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}

	var texts []string
	for _, reply := range s.replies.Drain(conversation) {
		texts = append(texts, reply.Text)
	}
	jsonBytes, _ := json.Marshal(map[string]any{"replies": texts})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversation, err := request.RequireString("conversation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bag, err := s.states.Backend().Load(ctx, domain.ConversationPrincipal(conversation))
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("conversation %q not found", conversation)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(bag)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleResetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversation, err := request.RequireString("conversation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	err = s.sessions.RunTurn(ctx, conversation, func(ctx context.Context) error {
		return s.states.Delete(ctx, domain.ConversationPrincipal(conversation))
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(`{"status":"ok"}`), nil
}

func (s *Server) handleListDialogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, _ := json.Marshal(map[string]any{"dialogs": s.registry.Names()})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
