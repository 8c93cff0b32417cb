// Package handlers wires the CLI commands to the trend engine components.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	ownerFlag string
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "currents",
		Short: "Detect trending topics across the content you follow",
		Long: `Currents - Trend Detection for Your Content

Currents ingests the content you follow (RSS/Atom feeds, tweets, videos,
articles), detects trending keywords across it, enriches them with an
external popularity signal, and keeps a ranked trend record per keyword.

Core workflow:
  • Register feeds: currents feed add <url>
  • Pull new content: currents feed refresh
  • Detect trends:   currents detect
  • Inspect results: currents trends list

Examples:
  currents --owner alice feed add https://hnrss.org/newest
  currents --owner alice feed refresh
  currents --owner alice detect
  currents --owner alice trends top --limit 3`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .currents.yaml)")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "owner the command acts for (default from config)")

	rootCmd.AddCommand(NewDetectCmd())
	rootCmd.AddCommand(NewTrendsCmd())
	rootCmd.AddCommand(NewFeedCmd())
	rootCmd.AddCommand(NewContentCmd())
	rootCmd.AddCommand(NewKeywordsCmd())
	rootCmd.AddCommand(NewCacheCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
