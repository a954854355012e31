package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/adapters/file"
	"github.com/parleykit/parley/pkg/adapters/memory"
	"github.com/parleykit/parley/pkg/adapters/redis"
	"github.com/parleykit/parley/pkg/adapters/sqlite"
	"github.com/parleykit/parley/pkg/bot"
	"github.com/parleykit/parley/pkg/persistence/middleware"
	"github.com/parleykit/parley/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a multi-step conversational dialog engine",
	Long:  `Parley runs waterfall dialogs with resumable prompts, persisted per-conversation state, and intent-triggered dispatch.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("store", "file", "State backend: memory, file, sqlite, or redis")
	rootCmd.PersistentFlags().String("data-dir", ".parley", "Directory for file and sqlite state")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (store=redis)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password (store=redis)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number (store=redis)")
	rootCmd.PersistentFlags().String("encryption-key", "", "Encrypt state bags at rest with this secret")
	rootCmd.PersistentFlags().String("settings", "", "Path to a settings YAML file")
}

// newStateStore builds the backend selected by --store, wrapped in
// encryption middleware when --encryption-key is set. The returned redis
// store (when used) doubles as the distributed locker's client source.
func newStateStore(cmd *cobra.Command) (ports.StateStore, ports.DistributedLocker, error) {
	kind, _ := cmd.Flags().GetString("store")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	var store ports.StateStore
	var locker ports.DistributedLocker

	switch kind {
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.New(filepath.Join(dataDir, "state"))
	case "sqlite":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("ensure data directory: %w", err)
		}
		s, err := sqlite.New(filepath.Join(dataDir, "state.db"))
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		s := redis.New(addr, password, db)
		store = s
		locker = redis.NewLocker(s.Client(), "parley:lock:")
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, file, sqlite, or redis)", kind)
	}

	if secret, _ := cmd.Flags().GetString("encryption-key"); secret != "" {
		key := sha256.Sum256([]byte(secret))
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: key[:],
		})(store)
	}

	return store, locker, nil
}

func loadSettings(cmd *cobra.Command) (bot.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")
	if path == "" {
		return bot.DefaultSettings(), nil
	}
	return bot.LoadSettings(path)
}
