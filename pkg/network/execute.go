package network

import (
	"context"
	"encoding/json"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
)

// Execute performs a request through c and decodes the JSON body into T.
func Execute[T any](ctx context.Context, c *Client, url string, opts RequestOptions) (T, error) {
	var v T
	raw, err := c.Do(ctx, url, opts)
	if err != nil {
		return v, err
	}
	if err := Decode(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Decode unmarshals raw into v, reporting failures as UnknownError.
func Decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fetcherrors.UnknownError(err)
	}
	return nil
}
