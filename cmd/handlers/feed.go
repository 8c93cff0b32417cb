package handlers

import (
	"context"
	"currents/internal/logger"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewFeedCmd creates the feed management command.
func NewFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Manage RSS/Atom feed sources",
		Long: `Manage the owner's RSS/Atom feed sources.

Subcommands:
  add       Add a new feed source
  remove    Remove a feed source
  list      List feed sources
  refresh   Fetch new items from feeds`,
	}

	cmd.AddCommand(newFeedAddCmd())
	cmd.AddCommand(newFeedRemoveCmd())
	cmd.AddCommand(newFeedListCmd())
	cmd.AddCommand(newFeedRefreshCmd())

	return cmd
}

func newFeedAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <feed-url>",
		Short: "Add a new RSS/Atom feed source",
		Long: `Add a new feed source for the owner.

The feed URL must be a valid RSS or Atom feed. The command fetches the
feed once to validate it and capture its title before storing it.

Examples:
  currents feed add https://hnrss.org/newest
  currents feed add https://arxiv.org/rss/cs.AI`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedAdd(cmd.Context(), args[0])
		},
	}
}

func newFeedRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <feed-id>",
		Short: "Remove a feed source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedRemove(cmd.Context(), args[0])
		},
	}
}

func newFeedListCmd() *cobra.Command {
	var showInactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedList(cmd.Context(), showInactive)
		},
	}

	cmd.Flags().BoolVar(&showInactive, "all", false, "Show inactive feeds as well")

	return cmd
}

func newFeedRefreshCmd() *cobra.Command {
	var feedID string

	cmd := &cobra.Command{
		Use:   "refresh [feed-id]",
		Short: "Fetch new items from feeds",
		Long: `Fetch new items from the owner's feeds and store them as content.

With no argument all active feeds are refreshed; a single feed can be
refreshed by passing its ID.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				feedID = args[0]
			}
			return runFeedRefresh(cmd.Context(), feedID)
		},
	}

	return cmd
}

func runFeedAdd(ctx context.Context, feedURL string) error {
	log := logger.Get()
	log.Info("Adding new feed", "url", feedURL)

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	feed, err := a.sources.AddFeed(ctx, a.owner, feedURL)
	if err != nil {
		return fmt.Errorf("failed to add feed: %w", err)
	}

	fmt.Println("Feed added")
	fmt.Printf("  ID:    %s\n", feed.ID)
	fmt.Printf("  Title: %s\n", feed.Title)
	fmt.Printf("  URL:   %s\n", feed.URL)
	fmt.Println("\nNext steps:")
	fmt.Println("  currents feed refresh")
	fmt.Println("  currents detect")

	return nil
}

func runFeedRemove(ctx context.Context, feedID string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sources.RemoveFeed(ctx, a.owner, feedID); err != nil {
		return fmt.Errorf("failed to remove feed: %w", err)
	}

	fmt.Println("Feed removed")
	return nil
}

func runFeedList(ctx context.Context, showInactive bool) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	feeds, err := a.sources.ListFeeds(ctx, a.owner, showInactive)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	if len(feeds) == 0 {
		fmt.Println("No feeds found")
		fmt.Println("\nAdd your first feed:")
		fmt.Println("  currents feed add <feed-url>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTitle\tActive\tLast Fetched\tErrors\n")
	for _, feed := range feeds {
		status := "yes"
		if !feed.Active {
			status = "no"
		}

		lastFetched := "never"
		if !feed.LastFetched.IsZero() {
			lastFetched = feed.LastFetched.Format("2006-01-02 15:04")
		}

		title := feed.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			shortID(feed.ID), title, status, lastFetched, feed.ErrorCount,
		)
	}
	return w.Flush()
}

func runFeedRefresh(ctx context.Context, feedID string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	var added int
	if feedID != "" {
		added, err = a.sources.RefreshFeed(ctx, a.owner, feedID)
	} else {
		added, err = a.sources.RefreshAll(ctx, a.owner)
	}
	if err != nil {
		return fmt.Errorf("failed to refresh feeds: %w", err)
	}

	fmt.Printf("Fetched %d new items\n", added)
	return nil
}
