package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
	"github.com/matzehuels/fetchflow/pkg/observability"
)

// RequestIDHeader carries a per-request UUID unless the caller sets one.
const RequestIDHeader = "X-Request-ID"

const noTransportMessage = "No fetch implementation found. For SSR, provide custom fetch in options."

// errDeadline is the cause attached to the executor's own deadline, which
// distinguishes a timeout from cancellation by the caller.
var errDeadline = errors.New("request deadline exceeded")

// Client executes JSON requests.
//
// The zero Client is usable but has no transport; see the package docs.
// A Client is safe for concurrent use if its Doer and Jar are.
type Client struct {
	HTTP    Doer              // Transport; nil requires RequestOptions.Transport
	Headers map[string]string // Sent with every request
	Logger  *log.Logger       // nil uses log.Default()
	Jar     http.CookieJar    // Consulted per Credentials; nil disables cookies
	Origin  string            // Scheme and host treated as same-origin; empty matches all
}

// ClientOption configures a Client built by NewClient.
type ClientOption func(*Client)

// WithHTTP sets the transport.
func WithHTTP(d Doer) ClientOption {
	return func(c *Client) { c.HTTP = d }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) ClientOption {
	return func(c *Client) { c.Headers = h }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.Logger = l }
}

// WithOrigin sets the origin used for same-origin credentials.
func WithOrigin(origin string) ClientOption {
	return func(c *Client) { c.Origin = origin }
}

// WithJar replaces the cookie jar.
func WithJar(jar http.CookieJar) ClientOption {
	return func(c *Client) { c.Jar = jar }
}

// NewClient creates a Client with a pooled *http.Client and an in-memory
// cookie jar. Timeouts are applied per request, not on the http.Client.
func NewClient(opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		HTTP: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Jar: jar,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) logger() *log.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Do performs one request and returns the JSON response body.
//
// The request carries JSON Content-Type and Accept headers, overridden by
// client headers and then by opts.Headers. The deadline covers the whole
// exchange including the body read. Every returned error is a
// *errors.FetchError.
func (c *Client) Do(ctx context.Context, rawURL string, opts RequestOptions) (json.RawMessage, error) {
	if c == nil {
		c = &Client{}
	}
	method := opts.method()
	if err := fetcherrors.ValidateMethod(string(method)); err != nil {
		return nil, err
	}
	if err := fetcherrors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if err := fetcherrors.ValidateHeaders(opts.Headers); err != nil {
		return nil, err
	}

	doer := opts.Transport
	if doer == nil {
		doer = c.HTTP
	}
	if doer == nil {
		return nil, fetcherrors.Unknownf(noTransportMessage)
	}

	var body io.Reader
	if opts.Body != nil && method != MethodGet {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fetcherrors.UnknownError(err)
		}
		body = bytes.NewReader(data)
	}

	timeout := opts.timeout()
	ctx, cancel := context.WithTimeoutCause(ctx, timeout, errDeadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, string(method), rawURL, body)
	if err != nil {
		return nil, fetcherrors.UnknownError(err)
	}
	c.setHeaders(req, opts)

	creds := opts.credentials()
	useJar := c.useJar(creds, req.URL)
	if useJar {
		for _, ck := range c.Jar.Cookies(req.URL) {
			req.AddCookie(ck)
		}
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, string(method), host, path)
	c.logger().Debug("request", "method", method, "url", rawURL)

	start := time.Now()
	data, status, err := c.send(doer, req, useJar)
	if err != nil {
		fe := classify(ctx, err, timeout)
		hooks.OnError(ctx, string(method), host, path, string(fe.Kind))
		c.logger().Debug("request failed", "method", method, "url", rawURL, "kind", fe.Kind)
		return nil, fe
	}
	elapsed := time.Since(start)
	hooks.OnResponse(ctx, string(method), host, path, status.code, elapsed)
	c.logger().Debug("response", "method", method, "url", rawURL, "status", status.code, "elapsed", elapsed)

	if fe := checkResponse(status, data); fe != nil {
		hooks.OnError(ctx, string(method), host, path, string(fe.Kind))
		return nil, fe
	}
	return json.RawMessage(data), nil
}

// responseStatus is the part of a response needed after the body is read.
type responseStatus struct {
	code        int
	contentType string
}

func (c *Client) send(doer Doer, req *http.Request, useJar bool) ([]byte, responseStatus, error) {
	resp, err := doer.Do(req)
	if err != nil {
		return nil, responseStatus{}, err
	}
	if resp == nil {
		return nil, responseStatus{}, fetcherrors.Unknownf("transport returned no response")
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer resp.Body.Close()

	if useJar {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.Jar.SetCookies(req.URL, cookies)
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, responseStatus{}, err
	}
	return data, responseStatus{
		code:        resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) setHeaders(req *http.Request, opts RequestOptions) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if opts.credentials() == CredentialsOmit {
		req.Header.Del("Cookie")
	}
}

// useJar reports whether cookies from the jar accompany a request to u.
func (c *Client) useJar(creds Credentials, u *url.URL) bool {
	if c.Jar == nil {
		return false
	}
	switch creds {
	case CredentialsInclude:
		return true
	case CredentialsOmit:
		return false
	}
	if c.Origin == "" {
		return true
	}
	origin, err := url.Parse(c.Origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(origin.Scheme, u.Scheme) && strings.EqualFold(origin.Host, u.Host)
}

// classify maps a transport error to the taxonomy. Only the executor's own
// deadline is a timeout; cancellation by the caller is unknown.
func classify(ctx context.Context, err error, timeout time.Duration) *fetcherrors.FetchError {
	if fe := fetcherrors.As(err); fe != nil {
		return fe
	}
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if errors.Is(cause, errDeadline) {
			return fetcherrors.TimeoutError(timeout)
		}
		return fetcherrors.UnknownError(cause)
	}
	return fetcherrors.NetworkError(err)
}

// checkResponse validates the status and content type of a read response.
func checkResponse(status responseStatus, data []byte) *fetcherrors.FetchError {
	if status.code < 200 || status.code > 299 {
		return fetcherrors.HTTPError(status.code, httpErrorMessage(status.code, data))
	}
	if !isJSON(status.contentType) {
		return fetcherrors.Unknownf("Unexpected content-type received")
	}
	if !json.Valid(data) {
		return fetcherrors.Unknownf("invalid JSON in response body")
	}
	return nil
}

// httpErrorMessage prefers a JSON "message" field, then the raw body.
func httpErrorMessage(code int, data []byte) string {
	fallback := fmt.Sprintf("HTTP error: %d", code)

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		if len(data) > 0 {
			return string(data)
		}
		return fallback
	}
	if obj, ok := parsed.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fallback
}

// isJSON accepts application/json and structured +json media types.
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
