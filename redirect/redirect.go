// Package redirect implements the redirect resolver (C4): a state machine
// that drives a fingerprinted transport across a chain of 301/302/303/307/308
// responses, rewriting method and body per status class, enforcing a hop
// limit, and detecting loops.
package redirect

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/firasghr/GoSessionEngine/errs"
)

// MaxHops is the maximum number of redirect hops a single call may take
// before failing with errs.TooManyRedirects.
const MaxHops = 5

// redirectStatuses is the set of HTTP status codes that continue the state
// machine rather than terminating it.
var redirectStatuses = map[int]bool{
	301: true, 302: true, 303: true, 307: true, 308: true,
}

// Frame is one iteration's request state: current URL, method, body, and
// headers, plus the hop index reached so far.
type Frame struct {
	URL     string
	Method  string
	Body    []byte
	Headers map[string]string
	Hop     int
}

// Hop describes a single executed exchange: the URL requested and the status
// code received.
type Hop struct {
	URL        string
	StatusCode int
}

// Exchanger performs one HTTP exchange. It is implemented by client.Client.
// headers is the fully composed outbound header set (including Cookie);
// Resolver does not know how headers are composed — that is C3's job, driven
// by the ComposeHeaders/SelectCookies callbacks below.
type Exchanger interface {
	Do(ctx context.Context, method, rawURL string, headers http.Header, body []byte) (*Exchange, error)
}

// Exchange is the raw result of one hop, mirroring C1's contract.
type Exchange struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	SetCookies []string
}

// Resolver drives the redirect state machine.
type Resolver struct {
	Transport Exchanger

	// ComposeHeaders returns the outbound header set for rawURL, merging
	// defaults/derived/overrides (C3). overrides carries the caller's
	// header overrides, repeated on every hop minus those a redirect
	// drops (body headers on 303; Authorization and Cookie cross-origin).
	ComposeHeaders func(rawURL string, overrides map[string]string) (http.Header, error)

	// SelectCookies returns the Cookie header value for rawURL from the
	// session's jar (C2), or "" if there is nothing to attach.
	SelectCookies func(rawURL string) (string, error)

	// IngestCookies stores Set-Cookie lines observed at rawURL into the
	// session's jar (C2).
	IngestCookies func(rawURL string, setCookieLines []string) error
}

// Result is the outcome of a fully resolved call.
type Result struct {
	Final    *Exchange
	FinalURL string
	Chain    []string // URLs traversed before the final one
	Hops     int
}

// Resolve drives frame0 through the state machine until a non-redirect
// status, an error, or the hop limit.
func (r *Resolver) Resolve(ctx context.Context, frame0 Frame) (*Result, error) {
	frame := frame0
	seen := map[string]bool{loopKey(frame0.URL): true}
	var chain []string

	for {
		select {
		case <-ctx.Done():
			return nil, errs.Wrap(errs.Timeout, "redirect: context cancelled", ctx.Err())
		default:
		}

		headers, err := r.ComposeHeaders(frame.URL, frame.Headers)
		if err != nil {
			return nil, errs.Wrap(errs.BadRequest, "redirect: compose headers", err)
		}
		if r.SelectCookies != nil {
			cookieHeader, err := r.SelectCookies(frame.URL)
			if err != nil {
				return nil, errs.Wrap(errs.BadRequest, "redirect: select cookies", err)
			}
			if cookieHeader != "" {
				headers.Set("Cookie", cookieHeader)
			}
		}

		exch, err := r.Transport.Do(ctx, frame.Method, frame.URL, headers, frame.Body)
		if err != nil {
			return nil, err
		}

		if r.IngestCookies != nil && len(exch.SetCookies) > 0 {
			if err := r.IngestCookies(frame.URL, exch.SetCookies); err != nil {
				return nil, errs.Wrap(errs.BadRequest, "redirect: ingest cookies", err)
			}
		}

		if !redirectStatuses[exch.StatusCode] {
			return &Result{Final: exch, FinalURL: frame.URL, Chain: chain, Hops: frame.Hop}, nil
		}

		nextFrame, err := r.advance(frame, exch)
		if err != nil {
			return nil, err
		}

		key := loopKey(nextFrame.URL)
		if seen[key] {
			return nil, errs.New(errs.RedirectLoop, "redirect: "+nextFrame.URL+" already visited in this chain")
		}
		seen[key] = true

		chain = append(chain, frame.URL)
		nextFrame.Hop = frame.Hop + 1
		if nextFrame.Hop > MaxHops {
			return nil, errs.New(errs.TooManyRedirects, "redirect: exceeded maximum of 5 hops")
		}

		frame = nextFrame
	}
}

// advance applies the Location header and method/body rewrite rules for
// exch's status code, returning the next frame.
func (r *Resolver) advance(frame Frame, exch *Exchange) (Frame, error) {
	loc := exch.Header.Get("Location")
	if loc == "" {
		return Frame{}, errs.New(errs.MalformedRedirect, "redirect: missing Location header")
	}

	base, err := url.Parse(frame.URL)
	if err != nil {
		return Frame{}, errs.Wrap(errs.MalformedRedirect, "redirect: parse current URL", err)
	}
	next, err := base.Parse(loc)
	if err != nil {
		return Frame{}, errs.Wrap(errs.MalformedRedirect, "redirect: parse Location", err)
	}
	if next.Scheme != "http" && next.Scheme != "https" {
		return Frame{}, errs.New(errs.MalformedRedirect, "redirect: Location scheme must be http or https")
	}

	nf := Frame{
		URL:     next.String(),
		Method:  frame.Method,
		Body:    frame.Body,
		Headers: cloneHeaders(frame.Headers),
	}

	switch exch.StatusCode {
	case 303:
		nf.Method = http.MethodGet
		nf.Body = nil
		dropHeaders(nf.Headers, "Content-Type", "Content-Length", "Transfer-Encoding")
	case 301, 302, 307, 308:
		// Method and body preserved (spec.md §9 redesign decision).
	}

	if crossOrigin(base, next) {
		dropHeaders(nf.Headers, "Authorization", "Cookie")
	}

	return nf, nil
}

// crossOrigin reports whether a and b differ in scheme or host
// (case-insensitively), per spec.md §4.4's cross-origin hop rule.
func crossOrigin(a, b *url.URL) bool {
	return !strings.EqualFold(a.Scheme, b.Scheme) || !strings.EqualFold(a.Host, b.Host)
}

// loopKey builds the loop-detection key: case-normalized origin plus raw
// path+query, per spec.md §4.4.
func loopKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	origin := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	return origin + u.RequestURI()
}

// dropHeaders removes entries from headers whose key matches one of
// names case-insensitively.
func dropHeaders(headers map[string]string, names ...string) {
	for k := range headers {
		for _, n := range names {
			if strings.EqualFold(k, n) {
				delete(headers, k)
			}
		}
	}
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
