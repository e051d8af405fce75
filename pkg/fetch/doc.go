// Package fetch composes caching, retry and the network client into
// one-shot and polling fetches.
//
// # Fetching
//
// [FetchOnce] returns a cached response when a live one exists, and
// otherwise performs the request under the retry policy and caches the
// result:
//
//	f := fetch.New(nil, cache.NewMemory[json.RawMessage](), logger)
//	res, err := fetch.FetchOnce[[]Item](ctx, f, "https://api.example.com/items", fetch.FetchOptions{
//	    CacheTime: time.Minute,
//	})
//	// res.FromCache reports whether the network was skipped.
//
// Zero option values select the defaults: a 5 minute TTL, 2 retries and a
// 1 second base delay. Responses are keyed by URL, method, headers and body
// (see cache.Key).
//
// # Polling
//
// A [Poller] repeats a fetch on an interval and fans results out to
// listeners:
//
//	p, err := fetch.NewPoller[Status](f, url, fetch.PollOptions{Interval: 5 * time.Second})
//	p.OnData(func(s Status, fromCache bool) { ... })
//	p.OnError(func(err *errors.FetchError) { ... })
//	p.Start(ctx)
//	defer p.Stop()
//
// Every error returned or emitted by this package is a *errors.FetchError.
package fetch
