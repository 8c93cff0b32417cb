package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Run a trend detection cycle for the owner",
		Long: `Run a full trend detection cycle: extract keywords from the owner's
recent content, enrich them with the external popularity signal, score
and rank them, and upsert the results as trend records.

This is the command a scheduler should invoke on a cadence.

Examples:
  currents --owner alice detect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd.Context())
		},
	}
}

func runDetect(ctx context.Context) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.detector.DetectAndSave(ctx, a.owner)
	if err != nil {
		return fmt.Errorf("failed to detect trends: %w", err)
	}

	fmt.Printf("Detected %d trends, saved %d\n", summary.Detected, summary.Saved)
	if len(summary.Top3) == 0 {
		fmt.Println("No trending keywords in the current window")
		return nil
	}
	fmt.Println("Top trends:")
	for i, t := range summary.Top3 {
		fmt.Printf("  %d. %-24s %6.2f\n", i+1, t.Keyword, t.Score)
	}
	return nil
}
