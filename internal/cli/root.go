package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Fetchflow fetches JSON APIs with caching, retries and polling",
		Long:         `Fetchflow is a CLI for JSON and GraphQL APIs. Responses are cached in a configurable backend, failed requests are retried with backoff, and resources can be polled on an interval.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", fmt.Sprintf("config file (default $%s or ~/.config/%s/config.toml)", configEnv, appName))

	root.AddCommand(c.getCommand())
	root.AddCommand(c.sendCommand())
	root.AddCommand(c.graphqlCommand())
	root.AddCommand(c.pollCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
