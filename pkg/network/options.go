package network

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a request when RequestOptions.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Method is an HTTP method accepted by the executor.
type Method string

// Supported methods.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Credentials controls whether cookies and auth headers accompany a request.
type Credentials string

// Credentials modes.
const (
	// CredentialsSameOrigin sends jar cookies only to the client's origin.
	CredentialsSameOrigin Credentials = "same-origin"

	// CredentialsInclude always sends jar cookies.
	CredentialsInclude Credentials = "include"

	// CredentialsOmit sends no cookies and drops any Cookie header.
	CredentialsOmit Credentials = "omit"
)

// ParseCredentials converts a config string into a Credentials mode.
// The empty string maps to CredentialsSameOrigin.
func ParseCredentials(s string) (Credentials, bool) {
	switch Credentials(s) {
	case "", CredentialsSameOrigin:
		return CredentialsSameOrigin, true
	case CredentialsInclude, CredentialsOmit:
		return Credentials(s), true
	}
	return "", false
}

// Doer sends an HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestOptions describes one request. The zero value is a GET with the
// default timeout and same-origin credentials.
type RequestOptions struct {
	Method      Method            // Default GET
	Headers     map[string]string // Merged over client and JSON defaults
	Body        any               // JSON encoded for methods other than GET
	Timeout     time.Duration     // Default DefaultTimeout
	Credentials Credentials       // Default CredentialsSameOrigin

	// Transport replaces the client's Doer for this request.
	Transport Doer `json:"-"`
}

func (o RequestOptions) method() Method {
	if o.Method == "" {
		return MethodGet
	}
	return o.Method
}

func (o RequestOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o RequestOptions) credentials() Credentials {
	if o.Credentials == "" {
		return CredentialsSameOrigin
	}
	return o.Credentials
}
