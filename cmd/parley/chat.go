package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/internal/demo"
	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/internal/presentation/tui"
	"github.com/parleykit/parley/pkg/domain"
	"github.com/parleykit/parley/pkg/transport"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the demo calendar bot in the terminal",
	Long:  `Starts an interactive session against the built-in calendar dialogs. State persists across runs with the configured store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, locker, err := newStateStore(cmd)
		if err != nil {
			return err
		}
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		conversation, _ := cmd.Flags().GetString("conversation")
		if conversation == "" {
			conversation = "cli-" + uuid.NewString()
		}

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		var render transport.RenderFunc
		if interactive {
			tui.PrintBanner()
			render = tui.NewRenderer()
		}

		opts := []parley.Option{
			parley.WithSettings(settings),
			parley.WithLogger(logging.NewNop()),
		}
		if locker != nil {
			opts = append(opts, parley.WithLocker(locker))
		}
		bot := parley.New(store, demo.NewCalendarRecognizer(), transport.NewWriter(os.Stdout, render), opts...)
		if err := demo.RegisterCalendarDialogs(bot.Registry(), bot.States()); err != nil {
			return err
		}

		// The bot joining the conversation triggers the welcome message.
		botAccount := domain.ChannelAccount{ID: "parley-bot"}
		join := domain.NewConversationUpdate(conversation, botAccount)
		join.Recipient = botAccount
		if err := bot.OnTurn(cmd.Context(), join); err != nil {
			return err
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			if interactive {
				fmt.Print("> ")
			}
			if !scanner.Scan() {
				break
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if text == "exit" || text == "quit" {
				break
			}

			activity := domain.NewMessage(conversation, user, text)
			if err := bot.OnTurn(cmd.Context(), activity); err != nil {
				fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("user", "local-user", "User identifier for the session")
	chatCmd.Flags().String("conversation", "", "Conversation identifier (default: a fresh one per run)")
}
