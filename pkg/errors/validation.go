package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateURL validates a request URL.
// It ensures the URL parses and uses the http or https scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return Unknownf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return UnknownError(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Unknownf("URL must use http or https scheme: %q", rawURL)
	}
	if u.Host == "" {
		return Unknownf("URL has no host: %q", rawURL)
	}
	return nil
}

var allowedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// ValidateMethod rejects HTTP methods outside GET, POST, PUT, PATCH and DELETE.
func ValidateMethod(method string) error {
	if !allowedMethods[method] {
		return Unknownf("unsupported HTTP method: %q", method)
	}
	return nil
}

// ValidateHeaders checks header names and values for characters that
// cannot appear on the wire.
func ValidateHeaders(headers map[string]string) error {
	for name, value := range headers {
		if name == "" {
			return Unknownf("header name cannot be empty")
		}
		for _, r := range name {
			if r > unicode.MaxASCII || unicode.IsControl(r) || unicode.IsSpace(r) || r == ':' {
				return Unknownf("invalid header name: %q", name)
			}
		}
		if strings.ContainsAny(value, "\r\n\x00") {
			return Unknownf("invalid value for header %q", name)
		}
	}
	return nil
}
