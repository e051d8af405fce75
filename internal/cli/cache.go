package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long: `Manage the response cache of the configured backend (file, redis or mongo).
Only entries in the configured namespace are counted or cleared.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheSizeCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.openBackend(ctx, false)
			if err != nil {
				return err
			}
			defer b.close()

			out := cmd.OutOrStdout()
			if b.storage == nil {
				printInfo(out, "Nothing to clear: %s cache is not persisted", c.cfg().Cache.Backend)
				return nil
			}

			prog := newProgress(c.Logger)
			count := b.cache.Size(ctx)
			if count == 0 {
				printInfo(out, "Cache is empty")
				printDetail(out, "Location: %s", b.location)
				return nil
			}
			b.cache.Clear(ctx)
			if left := b.cache.Size(ctx); left > 0 {
				printWarning(out, "Cleared %d of %d cached entries", count-left, count)
			} else {
				printSuccess(out, "Cleared %d cached entries", count)
			}
			printDetail(out, "Location: %s", b.location)
			prog.done("cache cleared")
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.openBackend(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer b.close()
			fmt.Fprintln(cmd.OutOrStdout(), b.location)
			return nil
		},
	}
}

// cacheSizeCommand creates the "cache size" subcommand.
func (c *CLI) cacheSizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.openBackend(ctx, false)
			if err != nil {
				return err
			}
			defer b.close()

			cfg := c.cfg().Cache
			out := cmd.OutOrStdout()
			printKeyValue(out, "Backend", cfg.Backend)
			printKeyValue(out, "Namespace", cfg.Namespace)
			printKeyValue(out, "Location", b.location)
			printKeyValue(out, "Entries", styleHighlight.Render(strconv.Itoa(b.cache.Size(ctx))))
			return nil
		},
	}
}
