// Package validate holds the small, single-purpose checks the request
// orchestrator runs against an inbound request descriptor before it ever
// reaches a session (spec.md §4.6 step 1).
package validate

import (
	"fmt"
	"net/url"

	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/proxyurl"
)

// allowedMethods is the permitted method set for a request descriptor.
var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Method reports an error if method is not in the permitted set.
func Method(method string) error {
	if !allowedMethods[method] {
		return errs.New(errs.BadRequest, fmt.Sprintf("validate: unsupported method %q", method))
	}
	return nil
}

// TargetURL reports an error if rawURL does not parse or does not carry an
// http/https scheme.
func TargetURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errs.Wrap(errs.BadRequest, "validate: malformed URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.New(errs.BadRequest, fmt.Sprintf("validate: unsupported URL scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return errs.New(errs.BadRequest, "validate: URL is missing a host")
	}
	return nil
}

// ProxyURL reports an error if rawProxy is non-empty and fails
// proxyurl.Parse's scheme/host checks.
func ProxyURL(rawProxy string) error {
	if rawProxy == "" {
		return nil
	}
	if _, err := proxyurl.Parse(rawProxy); err != nil {
		return errs.Wrap(errs.BadRequest, "validate: invalid proxy URL", err)
	}
	return nil
}
