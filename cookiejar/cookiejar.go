// Package cookiejar implements the per-session cookie store (C2). It stores
// cookies keyed by (domain, path, name) with RFC 6265 domain/path-match
// semantics and exposes the three operations the core needs: selecting
// cookies for an outbound URL, ingesting raw Set-Cookie lines, and taking a
// flat name→value snapshot.
package cookiejar

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// entry is the internal representation of one cookie.
type entry struct {
	name     string
	value    string
	domain   string
	path     string
	expires  time.Time
	secure   bool
	httpOnly bool
	sameSite http.SameSite
	hostOnly bool
	creation time.Time
}

// endOfTime is used as the expiry for session (non-persistent) cookies.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

func (e *entry) key() string {
	return e.domain + "\x00" + e.path + "\x00" + e.name
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !e.expires.Equal(endOfTime) && e.expires.Before(now)
}

// domainMatch implements RFC 6265 §5.1.3 domain-match.
func (e *entry) domainMatch(host string) bool {
	if e.domain == host {
		return true
	}
	return !e.hostOnly && hasDotSuffix(host, e.domain)
}

// pathMatch implements RFC 6265 §5.1.4 path-match.
func (e *entry) pathMatch(requestPath string) bool {
	if requestPath == e.path {
		return true
	}
	if strings.HasPrefix(requestPath, e.path) {
		if e.path[len(e.path)-1] == '/' {
			return true
		} else if requestPath[len(e.path)] == '/' {
			return true
		}
	}
	return false
}

func hasDotSuffix(s, suffix string) bool {
	return len(s) > len(suffix) && s[len(s)-len(suffix)-1] == '.' && s[len(s)-len(suffix):] == suffix
}

// Jar is a thread-safe, in-memory RFC 6265 cookie store for one session.
type Jar struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New returns an empty Jar.
func New() *Jar {
	return &Jar{entries: make(map[string]entry)}
}

// Select returns the cookies that should be attached to a request to
// rawURL: domain-matched, path-matched, secure-flag-honored, and not
// expired as of now.
func (j *Jar) Select(rawURL string) ([]*http.Cookie, error) {
	u, host, err := parseAndCanonicalize(rawURL)
	if err != nil {
		return nil, err
	}
	https := u.Scheme == "https"
	path := u.Path
	if path == "" {
		path = "/"
	}
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*http.Cookie
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		if !e.domainMatch(host) || !e.pathMatch(path) {
			continue
		}
		if e.secure && !https {
			continue
		}
		out = append(out, &http.Cookie{Name: e.name, Value: e.value})
	}
	return out, nil
}

// Ingest parses each line in setCookieLines as a Set-Cookie header value
// (e.g. "k=v; Path=/; Domain=example.com") observed in response to a request
// to rawURL, and upserts the resulting entries by (domain, path, name). A
// cookie whose effective expiry is in the past deletes any matching entry.
// Malformed lines are skipped rather than aborting the whole batch, matching
// browser tolerance of individual bad Set-Cookie headers.
func (j *Jar) Ingest(rawURL string, setCookieLines []string) error {
	if len(setCookieLines) == 0 {
		return nil
	}
	u, host, err := parseAndCanonicalize(rawURL)
	if err != nil {
		return err
	}
	defPath := defaultPath(u.Path)
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, line := range setCookieLines {
		hdr := http.Header{}
		hdr.Add("Set-Cookie", line)
		resp := http.Response{Header: hdr}
		cookies := resp.Cookies()
		if len(cookies) == 0 {
			continue
		}
		c := cookies[0]

		e, remove, err := newEntry(c, now, defPath, host)
		if err != nil {
			continue
		}
		if remove {
			delete(j.entries, e.key())
			continue
		}
		j.entries[e.key()] = e
	}
	return nil
}

// Snapshot returns a flat name→value projection of every non-expired cookie
// in the jar. On name collisions across (domain, path), the entry with the
// most specific (longest) path wins; ties are broken by most recent ingest.
func (j *Jar) Snapshot() map[string]string {
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	type winner struct {
		value    string
		pathLen  int
		creation time.Time
	}
	best := make(map[string]winner, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		w, ok := best[e.name]
		if !ok || len(e.path) > w.pathLen || (len(e.path) == w.pathLen && e.creation.After(w.creation)) {
			best[e.name] = winner{value: e.value, pathLen: len(e.path), creation: e.creation}
		}
	}
	out := make(map[string]string, len(best))
	for name, w := range best {
		out[name] = w.value
	}
	return out
}

// Cookies implements http.CookieJar so the jar can be used directly by a
// stdlib-shaped HTTP client in tests.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	cookies, err := j.Select(u.String())
	if err != nil {
		return nil
	}
	return cookies
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	lines := make([]string, 0, len(cookies))
	for _, c := range cookies {
		lines = append(lines, c.String())
	}
	_ = j.Ingest(u.String(), lines)
}

func parseAndCanonicalize(rawURL string) (*url.URL, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("cookiejar: parse URL: %w", err)
	}
	host, err := canonicalHost(u.Host)
	if err != nil {
		return nil, "", fmt.Errorf("cookiejar: canonicalize host: %w", err)
	}
	return u, host, nil
}

func canonicalHost(host string) (string, error) {
	if hasPort(host) {
		h, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", err
		}
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host), nil
}

func hasPort(host string) bool {
	colons := strings.Count(host, ":")
	if colons == 0 {
		return false
	}
	if colons == 1 {
		return true
	}
	return len(host) > 0 && host[0] == '[' && strings.Contains(host, "]:")
}

func isIP(host string) bool {
	return net.ParseIP(host) != nil
}

// defaultPath implements RFC 6265 §5.1.4.
func defaultPath(path string) string {
	if len(path) == 0 || path[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i == 0 {
		return "/"
	}
	return path[:i]
}

var (
	errIllegalDomain   = errors.New("cookiejar: illegal cookie domain attribute")
	errMalformedDomain = errors.New("cookiejar: malformed cookie domain attribute")
	errNoHostname      = errors.New("cookiejar: no host name available (IP only)")
)

// domainAndType determines the cookie's effective domain and hostOnly
// attribute per RFC 6265 §5.2.3/§5.3, rejecting public-suffix-only domains
// (e.g. "Domain=.com") as spec.md §9 requires.
func domainAndType(host, domain string) (string, bool, error) {
	if domain == "" {
		return host, true, nil
	}
	if isIP(host) {
		return "", false, errNoHostname
	}

	if domain[0] == '.' {
		domain = domain[1:]
	}
	if len(domain) == 0 || domain[0] == '.' {
		return "", false, errMalformedDomain
	}
	domain = strings.ToLower(domain)
	if domain[len(domain)-1] == '.' {
		return "", false, errMalformedDomain
	}

	if suffix, icann := publicsuffix.PublicSuffix(domain); icann && suffix == domain {
		if host == domain {
			return host, true, nil
		}
		return "", false, errIllegalDomain
	}

	if host != domain && !hasDotSuffix(host, domain) {
		return "", false, errIllegalDomain
	}
	return domain, false, nil
}

// newEntry builds an entry from an *http.Cookie observed at host, using
// defPath as the default path when the cookie carries none. remove reports
// whether the jar should instead delete any matching entry (the cookie has
// already expired with respect to now).
func newEntry(c *http.Cookie, now time.Time, defPath, host string) (e entry, remove bool, err error) {
	e.name = c.Name
	if c.Path == "" || c.Path[0] != '/' {
		e.path = defPath
	} else {
		e.path = c.Path
	}

	e.domain, e.hostOnly, err = domainAndType(host, c.Domain)
	if err != nil {
		return e, false, err
	}

	switch {
	case c.MaxAge < 0:
		return e, true, nil
	case c.MaxAge > 0:
		e.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	default:
		if c.Expires.IsZero() {
			e.expires = endOfTime
		} else {
			if !c.Expires.After(now) {
				return e, true, nil
			}
			e.expires = c.Expires
		}
	}

	e.creation = now
	e.value = c.Value
	e.secure = c.Secure
	e.httpOnly = c.HttpOnly
	e.sameSite = c.SameSite
	return e, false, nil
}
