package handlers

import (
	"context"
	"currents/internal/keywords"
	"fmt"

	"github.com/spf13/cobra"
)

// NewKeywordsCmd creates the keyword inspection command.
func NewKeywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Inspect keywords extracted from your content",
		Long: `Inspect keywords extracted from the owner's content without
running a full detection cycle.

Subcommands:
  suggest   Suggest keywords from recent content
  social    Show top hashtags and mentions from tweets`,
	}

	cmd.AddCommand(newKeywordsSuggestCmd())
	cmd.AddCommand(newKeywordsSocialCmd())

	return cmd
}

func newKeywordsSuggestCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest keywords from recent content",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeywordsSuggest(cmd.Context(), days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days of content to consider")
	return cmd
}

func newKeywordsSocialCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "social",
		Short: "Show top hashtags and mentions from tweets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeywordsSocial(cmd.Context(), days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days of tweets to consider")
	return cmd
}

func runKeywordsSuggest(ctx context.Context, days int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	extractor := keywords.NewExtractor(a.db.Content())
	suggestions, err := extractor.Suggestions(ctx, a.owner, days)
	if err != nil {
		return fmt.Errorf("failed to suggest keywords: %w", err)
	}

	if len(suggestions) == 0 {
		fmt.Println("No keywords found in the window")
		return nil
	}
	for i, kw := range suggestions {
		fmt.Printf("%3d. %s\n", i+1, kw)
	}
	return nil
}

func runKeywordsSocial(ctx context.Context, days int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	extractor := keywords.NewExtractor(a.db.Content())
	tags, err := extractor.ExtractSocialTags(ctx, a.owner, days)
	if err != nil {
		return fmt.Errorf("failed to extract social tags: %w", err)
	}

	if len(tags.Hashtags) == 0 && len(tags.Mentions) == 0 {
		fmt.Println("No hashtags or mentions found in the window")
		return nil
	}

	if len(tags.Hashtags) > 0 {
		fmt.Println("Hashtags:")
		for _, t := range tags.Hashtags {
			fmt.Printf("  %-24s %d\n", t.Tag, t.Count)
		}
	}
	if len(tags.Mentions) > 0 {
		fmt.Println("Mentions:")
		for _, t := range tags.Mentions {
			fmt.Printf("  %-24s %d\n", t.Tag, t.Count)
		}
	}
	return nil
}
