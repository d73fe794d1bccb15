// Package cli provides export and import commands for token documents.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tint/internal/db"
	"github.com/opencode-ai/tint/internal/engine"
	"github.com/opencode-ai/tint/internal/persist"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the token document",
	Long:  "Export tokens, scales, family indexes, overrides and pairs to a JSON file. Use - for stdout.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		doc := sess.Engine.Export()
		if args[0] == "-" {
			return WriteOutput(os.Stdout, doc)
		}

		if err := persist.NewFileStore(args[0]).Save(ctx, doc); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Exported %d tokens to %s\n", len(doc.Tokens), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a token document",
	Long:  "Replace the current state with a previously exported JSON document.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		doc, err := persist.NewFileStore(args[0]).Load(ctx)
		if err != nil {
			return err
		}

		// Import into a fresh engine so the document replaces the current
		// state instead of merging with it.
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		eng := engine.New(engineConfig(), db.NewEventRepository(database))
		if err := eng.Import(ctx, doc); err != nil {
			return err
		}
		if err := db.NewGraphStore(database).Save(ctx, eng.Export()); err != nil {
			return fmt.Errorf("save token graph: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Imported %d tokens from %s\n", len(doc.Tokens), args[0])
		return nil
	},
}
