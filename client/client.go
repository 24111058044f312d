// Package client provides the fingerprinted transport (C1): a single
// outbound HTTP exchange that presents a Chrome 133 TLS and HTTP/2
// fingerprint, dispatched optionally through an upstream proxy.
//
// The transport never follows redirects itself — the redirect resolver
// (package redirect) owns the hop state machine and calls Do once per hop.
package client

import (
	"context"
	"io"
	"net/http"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/redirect"
)

// Client wraps a single tls-client HTTP client configured with the Chrome
// 133 fingerprint profile. One Client belongs to exactly one session: its
// proxy and connection pool are not shared across sessions.
type Client struct {
	inner tls_client.HttpClient
}

// New builds a Client dispatching through proxy (empty string means direct)
// with the given end-to-end timeout. It implements redirect.Exchanger.
func New(proxy string, timeoutSeconds int) (*Client, error) {
	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_133),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}
	if proxy != "" {
		opts = append(opts, tls_client.WithProxyUrl(proxy))
	}

	inner, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ProxyProtocol, "client: build tls client", err)
	}
	return &Client{inner: inner}, nil
}

// SetProxy rebinds the underlying client's upstream proxy for the next
// exchange. A session's transport handle is reused across calls that may
// each name a different proxy (spec.md §4.1); the caller must hold the
// session's mutual-exclusion token while calling this.
func (c *Client) SetProxy(proxy string) error {
	if proxy == "" {
		return nil
	}
	if err := c.inner.SetProxy(proxy); err != nil {
		return errs.Wrap(errs.ProxyProtocol, "client: set proxy", err)
	}
	return nil
}

// Close releases idle connections held by the underlying client.
func (c *Client) Close() {
	c.inner.CloseIdleConnections()
}

// Do performs one HTTP exchange and satisfies redirect.Exchanger. It never
// follows redirects — the caller (redirect.Resolver) inspects the status
// code and Location header itself.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers http.Header, body []byte) (*redirect.Exchange, error) {
	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = newBytesReader(body)
	}

	req, err := fhttp.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "client: build request", err)
	}
	req.Header = toFHTTPHeader(headers)

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, classifyDoError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Decode, "client: read response body", err)
	}

	return &redirect.Exchange{
		StatusCode: resp.StatusCode,
		Header:     toNetHeader(resp.Header),
		Body:       respBody,
		SetCookies: resp.Header.Values("Set-Cookie"),
	}, nil
}

// classifyDoError maps a tls-client transport error to the error-kind
// taxonomy. The library does not export typed errors, so classification
// runs on the message; dial, TLS, proxy and timeout failures are told
// apart, and anything else is reported as a generic dial failure.
func classifyDoError(err error) error {
	msg := err.Error()
	switch {
	case containsAny(msg, "no such host", "connection refused", "network is unreachable", "connect:"):
		return errs.Wrap(errs.UpstreamDial, "client: dial upstream", err)
	case containsAny(msg, "tls:", "x509:", "handshake"):
		return errs.Wrap(errs.UpstreamTLS, "client: TLS handshake", err)
	case containsAny(msg, "proxy"):
		return errs.Wrap(errs.ProxyProtocol, "client: proxy dial", err)
	case containsAny(msg, "deadline exceeded", "timeout"):
		return errs.Wrap(errs.Timeout, "client: request timed out", err)
	default:
		return errs.Wrap(errs.UpstreamDial, "client: exchange failed", err)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOfFold(s, sub) >= 0 {
			return true
		}
	}
	return false
}

// indexOfFold is a tiny case-insensitive substring search, avoiding a
// strings.ToLower allocation on every classifyDoError call's candidates.
func indexOfFold(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if equalFold(s[i:i+m], sub) {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func toFHTTPHeader(h http.Header) fhttp.Header {
	out := make(fhttp.Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func toNetHeader(h fhttp.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

type bytesReader struct {
	b   []byte
	pos int
}

func newBytesReader(b []byte) *bytesReader {
	return &bytesReader{b: b}
}

func (r *bytesReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
