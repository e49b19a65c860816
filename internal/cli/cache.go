package cli

import (
	"fmt"

	"github.com/ppiankov/glosshover/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the annotated-output cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached annotation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		c, closeCache, err := openCache(cfg, log)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("cache is disabled")
		}
		defer closeCache()

		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s cache\n", cfg.Cache.Backend)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired entries from the disk cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		switch cfg.Cache.Backend {
		case "disk", "layered":
		default:
			return fmt.Errorf("prune applies to the disk and layered backends, not %q", cfg.Cache.Backend)
		}

		n, err := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTL).Prune()
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d expired entries from %s\n", n, cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd, cachePruneCmd)
}
