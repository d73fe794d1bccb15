// Package cli provides token management commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tint/internal/models"
)

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.AddCommand(overrideSetCmd)
	overrideCmd.AddCommand(overrideClearCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a token",
	Long:  "Set a token to a literal value or a {reference} to another token.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Engine.SetToken(ctx, args[0], args[1]); err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a token",
	Long:  "Resolve a token path or external name through its reference chain to the terminal literal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		path, err := resolveArgToPath(sess, args[0])
		if err != nil {
			return err
		}

		resolved, err := sess.Engine.Resolve(path)
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, map[string]string{
				"path":  path,
				"kind":  string(resolved.Kind),
				"value": resolved.Value,
			})
		}

		if resolved.Kind == models.KindColor {
			fmt.Fprintf(os.Stdout, "%s %s\n", swatch(resolved.Value), resolved.Value)
			return nil
		}
		fmt.Fprintln(os.Stdout, resolved.Value)
		return nil
	},
}

var namesCmd = &cobra.Command{
	Use:   "names <path>",
	Short: "Show external names",
	Long:  "Show every external name a token path answers to, one per naming scheme.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		names, err := sess.Engine.ExternalNames(args[0])
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, names)
		}
		for _, name := range names {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tokens",
	Long:  "List all tokens with their raw and resolved values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		tokens := sess.Engine.Tokens()
		if IsJSONOutput() {
			return WriteOutput(os.Stdout, tokens)
		}

		if len(tokens) == 0 {
			fmt.Fprintln(os.Stdout, "No tokens found.")
			return nil
		}

		overrides := sess.Engine.Overrides()
		rows := make([][]string, 0, len(tokens))
		for _, token := range tokens {
			key := token.Path.String()
			value := "-"
			if resolved, err := sess.Engine.Resolve(key); err == nil {
				value = resolved.Value
			}
			rows = append(rows, []string{
				key,
				string(token.Kind),
				token.Raw,
				value,
				formatYesNo(overrides[key] != ""),
			})
		}
		return writeTable(os.Stdout, []string{"PATH", "KIND", "RAW", "VALUE", "OVERRIDE"}, rows)
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage overrides",
	Long:  "Set or clear session overrides that shadow base tokens without modifying them.",
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set an override",
	Long:  "Shadow a base token with a literal value. References are not allowed in overrides.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Engine.SetOverride(ctx, args[0], args[1]); err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Override %s = %s\n", args[0], args[1])
		return nil
	},
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear <path>",
	Short: "Clear an override",
	Long:  "Remove an override and restore the base token value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Engine.ClearOverride(ctx, args[0]); err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Override cleared for %s\n", args[0])
		return nil
	},
}

// resolveArgToPath accepts either a dot-joined path or a slash-joined
// external name and returns the canonical dot-joined path.
func resolveArgToPath(sess *session, arg string) (string, error) {
	if strings.Contains(arg, "/") {
		path, ok := sess.Engine.LookupName(arg)
		if !ok {
			return "", fmt.Errorf("unknown external name %q", arg)
		}
		return path.String(), nil
	}
	return arg, nil
}
