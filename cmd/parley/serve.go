package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/parleykit/parley"
	"github.com/parleykit/parley/internal/demo"
	"github.com/parleykit/parley/internal/logging"
	"github.com/parleykit/parley/internal/observability"
	httpAdapter "github.com/parleykit/parley/pkg/adapters/http"
	"github.com/parleykit/parley/pkg/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the bot behind a JSON API over HTTP: synchronous turns plus conversation inspection and reset.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		store, locker, err := newStateStore(cmd)
		if err != nil {
			fmt.Printf("Error building state store: %v\n", err)
			os.Exit(1)
		}
		settings, err := loadSettings(cmd)
		if err != nil {
			fmt.Printf("Error loading settings: %v\n", err)
			os.Exit(1)
		}

		registry := prometheus.NewRegistry()
		metrics := observability.New(registry)

		replies := transport.NewRecorder()
		opts := []parley.Option{
			parley.WithSettings(settings),
			parley.WithLogger(logging.New(slog.LevelInfo)),
			parley.WithDialogEvents(metrics.DialogEvents()),
			parley.WithTurnHook(metrics.ObserveTurn),
		}
		if locker != nil {
			opts = append(opts, parley.WithLocker(locker))
		}
		bot := parley.New(store, demo.NewCalendarRecognizer(), replies, opts...)
		if err := demo.RegisterCalendarDialogs(bot.Registry(), bot.States()); err != nil {
			fmt.Printf("Error registering dialogs: %v\n", err)
			os.Exit(1)
		}

		// The adapter serializes turns itself, so it drives the raw
		// dispatcher rather than the facade's serialized OnTurn.
		server := httpAdapter.NewServer(
			bot.Dispatcher(), replies, bot.Sessions(), bot.States(), bot.Registry(),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Parley Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Parley Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
