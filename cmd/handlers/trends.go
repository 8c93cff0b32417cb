package handlers

import (
	"context"
	"currents/internal/core"
	"currents/internal/persistence"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewTrendsCmd creates the trends management command.
func NewTrendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Inspect and manage detected trends",
		Long: `Inspect and manage the owner's detected trends.

Subcommands:
  list      List trends from the last 30 days
  top       Show the highest scored trends from the last 7 days
  show      Show the full record for one keyword
  stats     Show aggregate trend statistics
  delete    Delete a trend record
  browse    Browse trends interactively`,
	}

	cmd.AddCommand(newTrendsListCmd())
	cmd.AddCommand(newTrendsTopCmd())
	cmd.AddCommand(newTrendsShowCmd())
	cmd.AddCommand(newTrendsStatsCmd())
	cmd.AddCommand(newTrendsDeleteCmd())
	cmd.AddCommand(newTrendsBrowseCmd())

	return cmd
}

func newTrendsListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trends detected in the last 30 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsList(cmd.Context(), limit, offset)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of trends to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of trends to skip")
	return cmd
}

func newTrendsTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the highest scored trends from the last 7 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsTop(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 3, "Number of trends to show")
	return cmd
}

func newTrendsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <keyword>",
		Short: "Show the full record for one keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsShow(cmd.Context(), args[0])
		},
	}
}

func newTrendsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate trend statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsStats(cmd.Context())
		},
	}
}

func newTrendsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trend-id>",
		Short: "Delete a trend record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrendsDelete(cmd.Context(), args[0])
		},
	}
}

func runTrendsList(ctx context.Context, limit, offset int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.detector.List(ctx, a.owner, limit, offset)
	if err != nil {
		return fmt.Errorf("failed to list trends: %w", err)
	}
	printTrendTable(records)
	return nil
}

func runTrendsTop(ctx context.Context, limit int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.detector.TopTrends(ctx, a.owner, limit)
	if err != nil {
		return fmt.Errorf("failed to get top trends: %w", err)
	}
	printTrendTable(records)
	return nil
}

func runTrendsShow(ctx context.Context, keyword string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.detector.Get(ctx, a.owner, keyword)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			fmt.Printf("No trend found for %q\n", keyword)
			return nil
		}
		return fmt.Errorf("failed to get trend: %w", err)
	}

	fmt.Printf("Keyword:   %s\n", record.Keyword)
	fmt.Printf("Score:     %.2f\n", record.Score)
	if record.ExternalSignal != nil {
		fmt.Printf("Signal:    %.1f\n", *record.ExternalSignal)
	}
	fmt.Printf("Mentions:  %d\n", record.ContentMentions)
	if record.Velocity != nil {
		fmt.Printf("Velocity:  %+.2f\n", *record.Velocity)
	}
	fmt.Printf("Detected:  %s\n", record.DetectedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Updated:   %s\n", record.UpdatedAt.Format("2006-01-02 15:04"))
	if len(record.RelatedContentIDs) > 0 {
		fmt.Println("Related content:")
		for _, id := range record.RelatedContentIDs {
			fmt.Printf("  %s\n", shortID(id))
		}
	}
	return nil
}

func printTrendTable(records []core.TrendRecord) {
	if len(records) == 0 {
		fmt.Println("No trends found")
		fmt.Println("\nDetect trends first:")
		fmt.Println("  currents detect")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tKeyword\tScore\tSignal\tMentions\tVelocity\tDetected\n")
	for _, t := range records {
		signal := "-"
		if t.ExternalSignal != nil {
			signal = fmt.Sprintf("%.1f", *t.ExternalSignal)
		}
		velocity := "-"
		if t.Velocity != nil {
			velocity = fmt.Sprintf("%+.2f", *t.Velocity)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%d\t%s\t%s\n",
			shortID(t.ID),
			t.Keyword,
			t.Score,
			signal,
			t.ContentMentions,
			velocity,
			t.DetectedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runTrendsStats(ctx context.Context) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.detector.Stats(ctx, a.owner)
	if err != nil {
		return fmt.Errorf("failed to get trend stats: %w", err)
	}

	fmt.Printf("Total trends:  %d\n", stats.TotalTrends)
	fmt.Printf("Active (7d):   %d\n", stats.ActiveTrends)
	fmt.Printf("Average score: %.2f\n", stats.AvgScore)
	if len(stats.TopKeywords) > 0 {
		fmt.Println("Top keywords:")
		for i, kw := range stats.TopKeywords {
			fmt.Printf("  %d. %s\n", i+1, kw)
		}
	}
	return nil
}

func runTrendsDelete(ctx context.Context, id string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.detector.Delete(ctx, a.owner, id); err != nil {
		return fmt.Errorf("failed to delete trend: %w", err)
	}
	fmt.Println("Trend deleted")
	return nil
}
