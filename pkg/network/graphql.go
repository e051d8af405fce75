package network

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
)

// GraphQLRequest is the POST payload of a GraphQL operation.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLOptions configures a GraphQL call. The method is always POST.
type GraphQLOptions struct {
	Headers     map[string]string
	Timeout     time.Duration
	Credentials Credentials
	Transport   Doer
}

// GraphQLResponse is the response envelope.
type GraphQLResponse struct {
	Data   json.RawMessage     `json:"data,omitempty"`
	Errors []GraphQLErrorEntry `json:"errors,omitempty"`
}

// GraphQLErrorEntry is one element of the errors array.
type GraphQLErrorEntry struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

var jsonNull = []byte("null")

// GraphQL executes req against endpoint and decodes the data field into T.
//
// A non-empty errors array fails with a GraphQLError carrying the first
// message; the others are dropped. An envelope without a data field fails
// with UnknownError. A null data field yields the zero T.
func GraphQL[T any](ctx context.Context, c *Client, endpoint string, req GraphQLRequest, opts GraphQLOptions) (T, error) {
	var v T
	raw, err := c.Do(ctx, endpoint, RequestOptions{
		Method:      MethodPost,
		Headers:     opts.Headers,
		Body:        req,
		Timeout:     opts.Timeout,
		Credentials: opts.Credentials,
		Transport:   opts.Transport,
	})
	if err != nil {
		return v, fetcherrors.Wrap(err)
	}

	var resp GraphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return v, fetcherrors.UnknownError(err)
	}
	if len(resp.Errors) > 0 {
		return v, fetcherrors.GraphQLError(resp.Errors[0].Message, nil)
	}
	if resp.Data == nil {
		return v, fetcherrors.Unknownf("GraphQL response missing data")
	}
	if bytes.Equal(resp.Data, jsonNull) {
		return v, nil
	}
	if err := Decode(resp.Data, &v); err != nil {
		return v, err
	}
	return v, nil
}
