package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/fetch"
)

func (c *CLI) getCommand() *cobra.Command {
	var (
		rf      requestFlags
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a JSON resource through the cache",
		Long: `Fetch a JSON resource. A live cached response is printed without a
network call; otherwise the request is retried with exponential backoff and
the response is cached for --cache-ttl.`,
		Example: `  fetchflow get https://api.example.com/items
  fetchflow get https://api.example.com/items -H "Authorization: Bearer $TOKEN" --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGet(cmd, args[0], &rf, compact)
		},
	}
	rf.register(cmd, true)
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON without indentation")
	return cmd
}

func (c *CLI) runGet(cmd *cobra.Command, url string, rf *requestFlags, compact bool) error {
	ctx := cmd.Context()
	opts, err := rf.fetchOptions(cmd, c.cfg())
	if err != nil {
		return err
	}
	f, release, err := c.newFetcher(ctx, rf.noCache, opts.Credentials)
	if err != nil {
		return err
	}
	defer release()

	prog := newProgress(c.Logger)
	stop := startSpinner(ctx, cmd.ErrOrStderr(), "Fetching "+url)
	res, err := fetch.FetchOnce[json.RawMessage](ctx, f, url, opts)
	stop()
	if err != nil {
		printFetchError(cmd.ErrOrStderr(), err)
		return err
	}
	prog.done("fetched " + url)

	if err := writeJSON(cmd.OutOrStdout(), res.Data, compact); err != nil {
		return err
	}
	printStatus(cmd.ErrOrStderr(), res.FromCache, prog.elapsed())
	return nil
}
