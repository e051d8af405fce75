package network

import "strings"

// JoinURL joins base and path with exactly one slash between them.
//
//	JoinURL("https://api.example.com/", "/users") // https://api.example.com/users
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
