// Package pkg provides the libraries behind fetchflow, a toolkit for fetching
// JSON APIs with caching, retries and polling.
//
// # Overview
//
// A fetch flows through four layers:
//
//	FetchOnce / Poller        [fetch]
//	         ↓
//	cache lookup              [cache]
//	         ↓ miss
//	retry with backoff        [httputil]
//	         ↓
//	one JSON request          [network]
//
// Every failure leaving these packages is an [errors.FetchError] whose Kind
// is one of NetworkError, HttpError, GraphQLError, TimeoutError or
// UnknownError.
//
// # Quick Start
//
// Fetch a resource once, served from the shared in-memory cache on repeat
// calls within five minutes:
//
//	import "github.com/matzehuels/fetchflow/pkg/fetch"
//
//	type Items struct {
//	    Items []string `json:"items"`
//	}
//
//	res, err := fetch.FetchOnce[Items](ctx, nil, "https://api.example.com/items", fetch.FetchOptions{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Data.Items, res.FromCache)
//
// Poll the same resource every ten seconds:
//
//	p, _ := fetch.NewPoller[Items](nil, url, fetch.PollOptions{Interval: 10 * time.Second})
//	p.OnData(func(items Items, fromCache bool) { ... })
//	p.OnError(func(err *errors.FetchError) { ... })
//	p.Start(ctx)
//	defer p.Stop()
//
// # Main Packages
//
// [fetch] - The Fetcher that composes cache, retry policy and client, the
// generic FetchOnce entry point and the interval Poller.
//
// [network] - The request executor: header merging, per-request deadlines,
// credentials modes and response classification. Also the GraphQL executor.
//
// [cache] - The Cache interface with an LRU in-memory implementation and a
// namespaced cache over any key-value Storage (memory, files, Redis, MongoDB).
//
// [httputil] - Exponential backoff with jitter.
//
// [errors] - The error taxonomy and input validation.
//
// [observability] - Hook interfaces for cache, HTTP and poll events, with a
// Prometheus implementation in observability/prom.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/cache/...              # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include MongoDB tests (FETCHFLOW_MONGO_URI)
//
// [fetch]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/fetch
// [network]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/network
// [cache]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/errors
// [errors.FetchError]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/errors#FetchError
// [observability]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/fetchflow/pkg/buildinfo
package pkg
