// Package proxyurl validates a single caller-supplied upstream proxy URL.
//
// Unlike the teacher's proxy package (which loaded a rotation list from a
// file and round-robinned through it) the engine has no proxy-rotation
// concept: each request descriptor may name its own proxy, so this package's
// only job is to validate one URL before it reaches the transport.
package proxyurl

import (
	"fmt"
	"net/url"
)

// allowedSchemes are the upstream proxy schemes the fingerprinted transport
// can dispatch through (spec.md §3, §4.1).
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// Parse validates raw as an upstream proxy URL: it must parse, have a
// scheme in {http, https, socks5}, and carry a non-empty host.
func Parse(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("proxyurl: parse %q: %w", raw, err)
	}
	if !allowedSchemes[u.Scheme] {
		return nil, fmt.Errorf("proxyurl: unsupported scheme %q (want http, https, or socks5)", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxyurl: missing host in %q", raw)
	}
	return u, nil
}
