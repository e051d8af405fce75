package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fetchflow/pkg/network"
)

func (c *CLI) graphqlCommand() *cobra.Command {
	var (
		rf        requestFlags
		query     string
		queryFile string
		vars      []string
		operation string
		compact   bool
	)
	cmd := &cobra.Command{
		Use:   "graphql <endpoint>",
		Short: "Run a GraphQL query or mutation",
		Long: `Run a GraphQL operation and print its data field. Variables are given
as key=value; values that parse as JSON (numbers, booleans, objects) are sent
as such, anything else as a string.`,
		Example: `  fetchflow graphql https://api.example.com/graphql -q '{ viewer { login } }'
  fetchflow graphql https://api.example.com/graphql -f query.graphql --var id=42 --operation Item`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if queryFile != "" {
				b, err := os.ReadFile(queryFile)
				if err != nil {
					return fmt.Errorf("read query: %w", err)
				}
				query = string(b)
			}
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("a query is required (-q or -f)")
			}
			variables, err := parseVariables(vars)
			if err != nil {
				return err
			}
			req := network.GraphQLRequest{Query: query, Variables: variables, OperationName: operation}
			return c.runGraphQL(cmd, args[0], &rf, req, compact)
		},
	}
	rf.register(cmd, false)
	cmd.Flags().StringVarP(&query, "query", "q", "", "GraphQL document")
	cmd.Flags().StringVarP(&queryFile, "query-file", "f", "", "read the GraphQL document from a file")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable as key=value (repeatable)")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name")
	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON without indentation")
	cmd.MarkFlagsMutuallyExclusive("query", "query-file")
	return cmd
}

func (c *CLI) runGraphQL(cmd *cobra.Command, endpoint string, rf *requestFlags, req network.GraphQLRequest, compact bool) error {
	ctx := cmd.Context()
	opts, err := rf.requestOptions(cmd, c.cfg())
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	stop := startSpinner(ctx, cmd.ErrOrStderr(), "Querying "+endpoint)
	data, err := network.GraphQL[json.RawMessage](ctx, c.newClient(), endpoint, req, network.GraphQLOptions{
		Headers:     opts.Headers,
		Timeout:     opts.Timeout,
		Credentials: opts.Credentials,
	})
	stop()
	if err != nil {
		printFetchError(cmd.ErrOrStderr(), err)
		return err
	}
	prog.done("queried " + endpoint)

	if data == nil {
		data = json.RawMessage("null")
	}
	if err := writeJSON(cmd.OutOrStdout(), data, compact); err != nil {
		return err
	}
	printStatus(cmd.ErrOrStderr(), false, prog.elapsed())
	return nil
}

// parseVariables parses key=value pairs, decoding JSON values where possible.
func parseVariables(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q: want key=value", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			vars[k] = decoded
		} else {
			vars[k] = v
		}
	}
	return vars, nil
}
