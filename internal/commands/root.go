// Package commands implements the skate-sessions command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/justestif/skate-sessions/internal/config"
	"github.com/justestif/skate-sessions/internal/db"
	"github.com/justestif/skate-sessions/internal/localdb"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "skate-sessions",
	Short: "Plan skate sessions and track the tricks you land",
	Long: `skate-sessions runs the skate session tracker web app and the
maintenance commands around it: database migrations and the trick catalog.`,
	SilenceUsage: true,
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging installs a JSON slog logger at the configured level.
func setupLogging(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
}

// openStore opens the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := localdb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	default:
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	}
}

// withStore loads the storage config, opens the store and runs fn with it.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store db.Store) error) error {
	cfg, err := config.LoadStorage()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}
