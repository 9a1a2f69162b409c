// Package links translates between narrows and the narrow links a server
// writes into URL fragments, e.g.
//
//	https://chat.example.com/#narrow/stream/5-general/topic/lunch/near/1000
//
// Decoding accepts every historical spelling of the operators; encoding
// writes what current servers write, falling back to the legacy vocabulary
// for servers below the feature level that introduced it.
package links

import (
	"net"
	"net/url"
	"strings"
)

const fragmentPrefix = "narrow/"

// IsNarrowLink reports whether u is a narrow link on the server at realm:
// same origin, root path, no query, and a fragment starting with "narrow/".
// Every decoder in this package assumes it holds.
func IsNarrowLink(u, realm *url.URL) bool {
	if u == nil || realm == nil {
		return false
	}

	if origin(u) != origin(realm) {
		return false
	}

	if u.Path != "" && u.Path != "/" {
		return false
	}

	if u.RawQuery != "" {
		return false
	}

	frag := u.EscapedFragment()

	return len(frag) >= len(fragmentPrefix) && strings.EqualFold(frag[:len(fragmentPrefix)], fragmentPrefix)
}

// origin renders scheme and host the way browsers compare them: lowercase,
// default port dropped.
func origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	port := u.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}

	if port != "" {
		host = net.JoinHostPort(host, port)
	}

	return scheme + "://" + host
}

// SplitFragment returns the operator and operand segments of a narrow link,
// still in their on-wire encoding. The leading "narrow" marker and a
// trailing slash are dropped.
func SplitFragment(u *url.URL) []string {
	parts := strings.Split(u.EscapedFragment(), "/")[1:]
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}

	return parts
}
