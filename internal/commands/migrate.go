package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/skate-sessions/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store db.Store) error {
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		})
	},
}
