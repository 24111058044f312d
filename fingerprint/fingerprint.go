// Package fingerprint produces the outbound header set for a single request.
//
// It bundles the static header signature of a Chrome 133 desktop client
// (User-Agent, Sec-Ch-Ua*, Accept*) with the per-request derived headers
// (Origin, Referer) and the caller's own overrides, merging them in the
// order defaults → derived → overrides so that a real browser's header
// order and casing survive onto the wire via OrderedHeader.
//
// The TLS-level signal (ClientHello cipher/extension order, ALPN, HTTP/2
// SETTINGS) is a separate concern, owned by the client package's transport;
// this package owns only the header-composition half of the fingerprint.
package fingerprint

import (
	"fmt"
	"net/url"
)

// defaultHeaders is the exact header set and order spec.md §4.3 mandates
// for the Chrome 133 desktop profile.
var defaultHeaders = []struct{ name, value string }{
	{"Accept", "application/json, text/plain, */*"},
	{"Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7"},
	{"Accept-Encoding", "gzip, deflate, br, zstd"},
	{"Cache-Control", "no-cache"},
	{"Pragma", "no-cache"},
	{"User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"},
	{"Sec-Ch-Ua", `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`},
	{"Sec-Ch-Ua-Mobile", "?0"},
	{"Sec-Ch-Ua-Platform", `"macOS"`},
	{"Sec-Fetch-Dest", "empty"},
	{"Sec-Fetch-Mode", "cors"},
	{"Sec-Fetch-Site", "same-site"},
}

// Defaults returns a fresh OrderedHeader populated with the Chrome 133
// desktop default header set, in wire order. Callers must not share the
// returned value across requests — each call to Defaults allocates new
// entries so composing concurrent requests is safe.
func Defaults() *OrderedHeader {
	h := &OrderedHeader{}
	for _, d := range defaultHeaders {
		h.Add(d.name, d.value)
	}
	return h
}

// Compose builds the outbound header set for a request to targetURL,
// merging defaults, derived headers (Origin, Referer), and the caller's
// overrides in that precedence order. Overrides are matched
// case-insensitively; a caller override with an empty value suppresses the
// header entirely (it is removed from the result, not sent as blank).
func Compose(targetURL string, overrides map[string]string) (*OrderedHeader, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: parse target URL: %w", err)
	}

	h := Defaults()

	origin := u.Scheme + "://" + u.Host
	h.Add("Origin", origin)
	h.Add("Referer", origin+"/")

	for name, value := range overrides {
		if value == "" {
			h.Del(name)
			continue
		}
		h.Set(name, value)
	}

	return h, nil
}
