package fingerprint

import (
	"net/http"
)

// headerEntry stores a single header key/value pair with its original casing.
type headerEntry struct {
	key   string
	value string
}

// OrderedHeader is a drop-in companion to http.Header that preserves the exact
// capitalisation and insertion order of HTTP headers.
//
// Unlike http.Header (which is a map[string][]string and therefore unordered),
// OrderedHeader stores entries in a slice so iteration always returns them in
// the order they were added. This matters for HTTP/2 fingerprinting: servers
// that profile client fingerprints inspect both the capitalisation (e.g.
// "sec-ch-ua-platform" vs "Sec-Ch-Ua-Platform") and the ordering of headers
// such as "accept-language", "sec-ch-ua-*", and "user-agent".
//
// OrderedHeader is NOT safe for concurrent use without external
// synchronisation. Each session builds its own OrderedHeader per request, so
// no additional locking is required.
type OrderedHeader struct {
	entries []headerEntry
}

// Add appends key/value to the header list, preserving the exact casing of
// key. Multiple calls with the same key produce multiple entries (equivalent
// to http.Header.Add).
func (h *OrderedHeader) Add(key, value string) {
	h.entries = append(h.entries, headerEntry{key: key, value: value})
}

// Set replaces the first entry whose key matches key (case-insensitively) with
// the new value and removes any subsequent duplicates. If no entry with that
// key exists, Set behaves like Add.
func (h *OrderedHeader) Set(key, value string) {
	canonKey := http.CanonicalHeaderKey(key)
	replaced := false
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			if !replaced {
				out = append(out, headerEntry{key: key, value: value})
				replaced = true
			}
		} else {
			out = append(out, e)
		}
	}
	if !replaced {
		out = append(out, headerEntry{key: key, value: value})
	}
	h.entries = out
}

// Del removes all entries whose key matches key (case-insensitively).
func (h *OrderedHeader) Del(key string) {
	canonKey := http.CanonicalHeaderKey(key)
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) != canonKey {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Get returns the value of the first entry whose key matches key
// (case-insensitively), or an empty string if no such entry exists.
func (h *OrderedHeader) Get(key string) string {
	canonKey := http.CanonicalHeaderKey(key)
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			return e.value
		}
	}
	return ""
}

// Len returns the number of header entries (including duplicates).
func (h *OrderedHeader) Len() int { return len(h.entries) }

// Keys returns the distinct header names in insertion order.
func (h *OrderedHeader) Keys() []string {
	seen := make(map[string]bool, len(h.entries))
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		canon := http.CanonicalHeaderKey(e.key)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, e.key)
	}
	return out
}

// Clone returns a shallow copy of the receiver.
func (h *OrderedHeader) Clone() *OrderedHeader {
	c := &OrderedHeader{entries: make([]headerEntry, len(h.entries))}
	copy(c.entries, h.entries)
	return c
}

// HeaderOrderKey is the magic http.Header entry fhttp-based transports (and
// the wider ecosystem of forked net/http clients used for TLS fingerprinting)
// read to recover wire order from an otherwise unordered map[string][]string.
// It is never sent as a literal header; the transport strips it before
// writing the request.
const HeaderOrderKey = "Header-Order:"

// ToHTTPHeader converts the OrderedHeader to a standard http.Header map.
// Insertion order is not representable in http.Header's map directly, so it
// is additionally recorded under HeaderOrderKey; a fingerprinted transport
// reads that entry to replicate the exact wire order Add calls produced here.
// The exact key casing of every real entry is preserved because we use the
// raw key as the map key rather than http.CanonicalHeaderKey(key).
func (h *OrderedHeader) ToHTTPHeader() http.Header {
	out := make(http.Header, len(h.entries)+1)
	for _, e := range h.entries {
		out[e.key] = append(out[e.key], e.value)
	}
	out[HeaderOrderKey] = h.Keys()
	return out
}
