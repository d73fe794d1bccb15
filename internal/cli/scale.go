// Package cli provides color scale commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tint/internal/models"
)

var (
	scaleSynthName string
	scaleEditDown  bool
	scaleEditUp    bool
)

func init() {
	rootCmd.AddCommand(scaleCmd)
	scaleCmd.AddCommand(scaleSynthCmd)
	scaleCmd.AddCommand(scaleEditCmd)
	scaleCmd.AddCommand(scaleShowCmd)
	scaleCmd.AddCommand(scaleListCmd)
	scaleCmd.AddCommand(scaleRemoveCmd)

	scaleSynthCmd.Flags().StringVar(&scaleSynthName, "name", "", "family alias (derived from hue when empty)")
	scaleEditCmd.Flags().BoolVar(&scaleEditDown, "down", false, "regenerate only the lighter steps")
	scaleEditCmd.Flags().BoolVar(&scaleEditUp, "up", false, "regenerate only the darker steps")
}

var scaleCmd = &cobra.Command{
	Use:   "scale",
	Short: "Manage color scales",
	Long:  "Synthesize, edit and inspect 12-step color scales.",
}

var scaleSynthCmd = &cobra.Command{
	Use:   "synth <seed-hex>",
	Short: "Synthesize a scale",
	Long:  "Generate a full 12-step scale from a seed color placed at step 500.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		scale, err := sess.Engine.SynthesizeScale(ctx, args[0], scaleSynthName)
		if err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, scale)
		}
		fmt.Fprintf(os.Stdout, "Synthesized scale %q\n", scale.Alias)
		printScale(scale)
		return nil
	},
}

var scaleEditCmd = &cobra.Command{
	Use:   "edit <family> <step> <hex>",
	Short: "Edit one step and cascade",
	Long:  "Replace one step of a scale and regenerate neighboring steps from the edit. Without --down or --up both directions regenerate.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		down, up := scaleEditDown, scaleEditUp
		if !down && !up {
			down, up = true, true
		}

		scale, err := sess.Engine.ApplyCascade(ctx, args[0], args[1], args[2], down, up)
		if err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, scale)
		}
		printScale(scale)
		return nil
	},
}

var scaleShowCmd = &cobra.Command{
	Use:   "show <family>",
	Short: "Show a scale",
	Long:  "Show all 12 steps of a scale with color swatches.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		scale, err := sess.Engine.Scale(args[0])
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, scale)
		}
		printScale(scale)
		return nil
	},
}

var scaleListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List scale families",
	Long:  "List registered scale families with their step-500 anchor color.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		families := sess.Engine.Families()
		if IsJSONOutput() {
			return WriteOutput(os.Stdout, families)
		}

		if len(families) == 0 {
			fmt.Fprintln(os.Stdout, "No scales found.")
			return nil
		}

		rows := make([][]string, 0, len(families))
		for _, family := range families {
			anchor := "-"
			if scale, err := sess.Engine.Scale(family); err == nil {
				if idx, ok := models.StepIndex("500"); ok {
					anchor = scale.Hex[idx]
				}
			}
			rows = append(rows, []string{family, anchor})
		}
		return writeTable(os.Stdout, []string{"FAMILY", "STEP 500"}, rows)
	},
}

var scaleRemoveCmd = &cobra.Command{
	Use:   "rm <family>",
	Short: "Delete a scale",
	Long:  "Delete a scale family. Its scale index is retired and never reassigned.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.Engine.DeleteScale(ctx, args[0]); err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Deleted scale %q\n", args[0])
		return nil
	},
}

func printScale(scale models.ColorScale) {
	for i, step := range models.ScaleSteps {
		fmt.Fprintf(os.Stdout, "%4s  %s  %s\n", step, swatch(scale.Hex[i]), scale.Hex[i])
	}
}
