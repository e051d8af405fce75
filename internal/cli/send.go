package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/fetch"
	"github.com/matzehuels/fetchflow/pkg/network"
)

func (c *CLI) sendCommand() *cobra.Command {
	var (
		rf      requestFlags
		method  string
		data    string
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "Send a single mutation request",
		Long: `Send one request with a JSON body. Mutations bypass the cache and are
never retried. On success the cached GET response for the same URL and
headers is invalidated.

The body is given with -d as inline JSON, or as @path to read it from a file.`,
		Example: `  fetchflow send https://api.example.com/items -d '{"name":"widget"}'
  fetchflow send https://api.example.com/items/3 -X DELETE`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSend(cmd, args[0], &rf, method, data, compact)
		},
	}
	rf.register(cmd, false)
	cmd.Flags().StringVarP(&method, "request", "X", string(network.MethodPost), "HTTP method: POST, PUT, PATCH or DELETE")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, or @file")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON without indentation")
	return cmd
}

func (c *CLI) runSend(cmd *cobra.Command, url string, rf *requestFlags, method, data string, compact bool) error {
	ctx := cmd.Context()
	opts, err := rf.requestOptions(cmd, c.cfg())
	if err != nil {
		return err
	}
	opts.Method = network.Method(strings.ToUpper(method))
	if opts.Method == network.MethodGet {
		return fmt.Errorf("send issues mutations; use get for GET requests")
	}
	body, err := parseBody(data)
	if err != nil {
		return err
	}
	opts.Body = body

	f, release, err := c.newFetcher(ctx, false, opts.Credentials)
	if err != nil {
		return err
	}
	defer release()

	prog := newProgress(c.Logger)
	stop := startSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Sending %s %s", opts.Method, url))
	raw, err := f.Client().Do(ctx, url, opts)
	stop()
	if err != nil {
		printFetchError(cmd.ErrOrStderr(), err)
		return err
	}
	prog.done(fmt.Sprintf("sent %s %s", opts.Method, url))

	f.Invalidate(ctx, url, fetch.FetchOptions{RequestOptions: network.RequestOptions{Headers: opts.Headers}})

	if err := writeJSON(cmd.OutOrStdout(), raw, compact); err != nil {
		return err
	}
	printStatus(cmd.ErrOrStderr(), false, prog.elapsed())
	return nil
}

// parseBody decodes a -d value. An empty value means no body.
func parseBody(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		raw = b
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}
	return body, nil
}
