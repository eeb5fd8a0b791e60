package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/skate-sessions/internal/catalog"
	"github.com/justestif/skate-sessions/internal/db"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the trick catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import tricks from a YAML file",
	Long: `Import tricks from a YAML file of the form

  tricks:
    - name: Ollie
      obstacle: flat
      stance: regular
      difficulty: 1

Tricks are keyed by name, obstacle and stance. Importing an existing trick
updates its difficulty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tricks, err := catalog.Load(args[0])
		if err != nil {
			return err
		}

		return withStore(cmd, func(ctx context.Context, store db.Store) error {
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
			written, err := store.Tricks().Upsert(ctx, tricks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tricks (%d rows written).\n", len(tricks), written)
			return nil
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the trick catalog",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store db.Store) error {
			tricks, err := store.Tricks().List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tricks) == 0 {
				fmt.Fprintln(out, "No tricks in the catalog. Use 'skate-sessions catalog import <file.yaml>' to add some.")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-30s %-15s %-10s %s\n", "ID", "NAME", "OBSTACLE", "STANCE", "DIFFICULTY")
			fmt.Fprintln(out, strings.Repeat("-", 72))
			for _, t := range tricks {
				fmt.Fprintf(out, "%-5d %-30s %-15s %-10s %d\n", t.ID, t.Name, t.Obstacle, t.Stance, t.Difficulty)
			}
			return nil
		})
	},
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
}
