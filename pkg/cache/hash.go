package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
)

// keyPrefix marks keys derived from a logical request.
const keyPrefix = "fetch"

// requestIdentity is the canonical form of a request for keying.
// encoding/json writes map keys in sorted order, so equal requests marshal
// to equal bytes regardless of header insertion order.
type requestIdentity struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Key derives the cache key for a request from the URL and the options that
// affect the response. Header names are canonicalised so "accept" and
// "Accept" key the same entry; an empty method is treated as GET.
//
// The key format is: fetch:<sha256 of canonical JSON>
func Key(url, method string, headers map[string]string, body any) string {
	if method == "" {
		method = http.MethodGet
	}
	id := requestIdentity{URL: url, Method: method, Body: body}
	if len(headers) > 0 {
		id.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			id.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}
	data, err := json.Marshal(id)
	if err != nil {
		// Bodies that cannot be marshalled still need a stable key.
		id.Body = fmt.Sprintf("%#v", body)
		data, _ = json.Marshal(id)
	}
	return fmt.Sprintf("%s:%s", keyPrefix, Hash(data))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
