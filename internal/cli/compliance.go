// Package cli provides contrast compliance commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pairsAddMinRatio float64

func init() {
	rootCmd.AddCommand(pairsCmd)
	rootCmd.AddCommand(scanCmd)
	pairsCmd.AddCommand(pairsAddCmd)
	pairsCmd.AddCommand(pairsListCmd)

	pairsAddCmd.Flags().Float64Var(&pairsAddMinRatio, "min-ratio", 0, "minimum contrast ratio (config default when unset)")
}

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Manage compliance pairs",
	Long:  "Register and list foreground/background pairs watched for contrast compliance.",
}

var pairsAddCmd = &cobra.Command{
	Use:   "add <foreground> <background>",
	Short: "Register a pair",
	Long:  "Register a foreground/background token pair for contrast enforcement.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		minRatio := pairsAddMinRatio
		if minRatio == 0 {
			minRatio = GetConfig().Compliance.DefaultMinimumRatio
		}

		pair, err := sess.Engine.RegisterCompliancePair(args[0], args[1], minRatio)
		if err != nil {
			return err
		}
		if err := sess.Save(ctx); err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, pair)
		}
		fmt.Fprintf(os.Stdout, "Registered pair %s (%s on %s, min %.2f)\n", pair.ID, pair.Foreground, pair.Background, pair.MinimumRatio)
		return nil
	},
}

var pairsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List pairs",
	Long:  "List registered compliance pairs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(context.Background())
		if err != nil {
			return err
		}
		defer sess.Close()

		pairs := sess.Engine.CompliancePairs()
		if IsJSONOutput() {
			return WriteOutput(os.Stdout, pairs)
		}

		if len(pairs) == 0 {
			fmt.Fprintln(os.Stdout, "No pairs registered.")
			return nil
		}

		rows := make([][]string, 0, len(pairs))
		for _, pair := range pairs {
			rows = append(rows, []string{
				pair.ID,
				pair.Foreground.String(),
				pair.Background.String(),
				fmt.Sprintf("%.2f", pair.MinimumRatio),
			})
		}
		return writeTable(os.Stdout, []string{"ID", "FOREGROUND", "BACKGROUND", "MIN RATIO"}, rows)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a compliance scan",
	Long:  "Evaluate every registered pair, auto-fixing violations by walking the foreground's scale.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		results := sess.Engine.RunComplianceScan(ctx)
		if err := sess.Save(ctx); err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, results)
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stdout, "No pairs evaluated.")
			return nil
		}

		rows := make([][]string, 0, len(results))
		for _, result := range results {
			fix := "-"
			if result.AppliedFix != nil {
				fix = fmt.Sprintf("%s = %s", result.AppliedFix.Path, result.AppliedFix.NewValue)
			}
			rows = append(rows, []string{
				result.Pair.Foreground.String(),
				result.Pair.Background.String(),
				fmt.Sprintf("%.2f", result.Ratio),
				string(result.Status),
				fix,
			})
		}
		return writeTable(os.Stdout, []string{"FOREGROUND", "BACKGROUND", "RATIO", "STATUS", "FIX"}, rows)
	},
}
