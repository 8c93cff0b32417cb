package handlers

import (
	"context"
	"currents/internal/core"
	"currents/internal/persistence"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewContentCmd creates the content management command.
func NewContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage aggregated content items",
		Long: `Manage the owner's aggregated content items.

Most content arrives through feed refreshes; the add subcommand exists
for manual entries and for sources without a feed.

Subcommands:
  add       Add a content item manually
  list      List recent content items`,
	}

	cmd.AddCommand(newContentAddCmd())
	cmd.AddCommand(newContentListCmd())

	return cmd
}

func newContentAddCmd() *cobra.Command {
	var (
		contentType string
		title       string
		body        string
		author      string
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a content item manually",
		Long: `Add a content item manually.

Examples:
  currents content add https://example.com/post --type article --title "Go 1.24" --body "..."
  currents content add https://x.com/alice/status/1 --type tweet --body "shipping #golang today"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContentAdd(cmd.Context(), args[0], contentType, title, body, author)
		},
	}

	cmd.Flags().StringVar(&contentType, "type", "article", "Content type (tweet, video, article, newsletter)")
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().StringVar(&body, "body", "", "Item body text")
	cmd.Flags().StringVar(&author, "author", "", "Author handle or name")

	return cmd
}

func newContentListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent content items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContentList(cmd.Context(), limit, offset)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of items to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of items to skip")

	return cmd
}

func runContentAdd(ctx context.Context, url, contentType, title, body, author string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now().UTC()
	item := &core.ContentItem{
		ID:          uuid.NewString(),
		Owner:       a.owner,
		Type:        core.ContentType(contentType),
		Title:       title,
		Body:        body,
		URL:         url,
		Author:      author,
		PublishedAt: &now,
		CreatedAt:   now,
	}

	if err := a.db.Content().Create(ctx, item); err != nil {
		return fmt.Errorf("failed to add content: %w", err)
	}

	fmt.Println("Content added")
	fmt.Printf("  ID:   %s\n", item.ID)
	fmt.Printf("  Type: %s\n", item.Type)
	return nil
}

func runContentList(ctx context.Context, limit, offset int) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.db.Content().List(ctx, a.owner, persistence.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return fmt.Errorf("failed to list content: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No content found")
		fmt.Println("\nPull content from your feeds:")
		fmt.Println("  currents feed refresh")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tType\tTitle\tAuthor\tCreated\n")
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.Body
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(item.ID), item.Type, title, item.Author,
			item.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
