package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/internal/demo"
	"github.com/parleykit/parley/internal/logging"
	mcpAdapter "github.com/parleykit/parley/pkg/adapters/mcp"
	"github.com/parleykit/parley/pkg/transport"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the bot as an MCP server over stdio.
This lets AI agents drive conversations as tools: send messages, inspect
and reset conversation state, and list the registered dialogs.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, locker, err := newStateStore(cmd)
		if err != nil {
			log.Fatalf("Error building state store: %v", err)
		}
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}

		// Ensure logs don't corrupt JSON-RPC on Stdout.
		log.SetOutput(os.Stderr)
		logger := logging.New(slog.LevelInfo)

		replies := transport.NewRecorder()
		opts := []parley.Option{
			parley.WithSettings(settings),
			parley.WithLogger(logger),
		}
		if locker != nil {
			opts = append(opts, parley.WithLocker(locker))
		}
		bot := parley.New(store, demo.NewCalendarRecognizer(), replies, opts...)
		if err := demo.RegisterCalendarDialogs(bot.Registry(), bot.States()); err != nil {
			log.Fatalf("Error registering dialogs: %v", err)
		}

		srv := mcpAdapter.NewServer(bot.Dispatcher(), replies, bot.Sessions(), bot.States(), bot.Registry())

		logger.Info("Starting Parley MCP Server (Stdio)...")
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP Server execution failed", "error", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "MCP Server stopped")
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
