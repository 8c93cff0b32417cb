package handlers

import (
	"currents/internal/config"
	"currents/internal/store"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the signal cache management command.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the external signal cache",
		Long: `Manage the local cache of external popularity scores.

Scores fetched from the signal provider are cached on disk so repeat
detection runs within the TTL window skip the network entirely.

Subcommands:
  stats     Show cache statistics
  cleanup   Remove expired entries
  clear     Remove all entries`,
	}

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheCleanupCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats()
		},
	}
}

func newCacheCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheCleanup()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear()
		},
	}
}

// openCache opens the signal cache without touching the primary database.
// Cache commands should work even when Postgres is unreachable.
func openCache() (*store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cache, err := store.NewStore(cfg.App.DataDir, config.Duration(cfg.Signal.CacheTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to open signal cache: %w", err)
	}
	return cache, nil
}

func runCacheStats() error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	fresh, total, err := cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Entries: %d total, %d fresh, %d expired\n", total, fresh, total-fresh)
	return nil
}

func runCacheCleanup() error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Cleanup(); err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}
	fmt.Println("Expired entries removed")
	return nil
}

func runCacheClear() error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared")
	return nil
}
