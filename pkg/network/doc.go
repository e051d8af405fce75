// Package network executes JSON requests and classifies their failures.
//
// [Client.Do] performs one HTTP exchange under a deadline and returns the raw
// JSON body. Every failure is a *[errors.FetchError]:
//
//   - transport failure: NetworkError
//   - non-2xx status: HttpError, with the message taken from the body
//   - deadline exceeded: TimeoutError, carrying the configured timeout
//   - non-JSON success, invalid JSON, or no transport: UnknownError
//
// [Execute] decodes the body into a typed value and [GraphQL] layers the
// GraphQL envelope on top.
//
// # Transport
//
// A [Client] sends through its HTTP field, any [Doer]. [NewClient] installs
// an *http.Client; a zero Client has no transport and every request must
// supply RequestOptions.Transport:
//
//	c := &network.Client{}
//	raw, err := c.Do(ctx, url, network.RequestOptions{Transport: myDoer})
//
// # Credentials
//
// The cookie jar is consulted according to [Credentials]: same-origin only
// for URLs on Client.Origin, include always, omit never. Omit also drops a
// Cookie header; explicit Authorization headers are still sent.
//
// [errors.FetchError]: github.com/matzehuels/fetchflow/pkg/errors.FetchError
package network
