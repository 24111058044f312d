package orchestrator

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/fingerprint"
	"github.com/firasghr/GoSessionEngine/metrics"
	"github.com/firasghr/GoSessionEngine/redirect"
	"github.com/firasghr/GoSessionEngine/session"
	"github.com/firasghr/GoSessionEngine/validate"
)

// Engine is C6: it validates a request descriptor, acquires a session,
// drives the redirect resolver, and assembles the response descriptor.
type Engine struct {
	Registry *session.Registry
	Metrics  *metrics.Metrics
}

// NewEngine builds an Engine over registry, recording observations to m.
func NewEngine(registry *session.Registry, m *metrics.Metrics) *Engine {
	return &Engine{Registry: registry, Metrics: m}
}

// Execute runs spec.md §4.6's five steps for one inbound request.
func (e *Engine) Execute(ctx context.Context, req RequestDescriptor) (*ResponseDescriptor, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	sess, ephemeral, err := e.acquireSession(req.SessionHandle)
	if err != nil {
		return nil, err
	}
	if !ephemeral {
		sess.Lock()
		defer sess.Unlock()
	}

	if req.Proxy != "" {
		if err := sess.Transport.SetProxy(req.Proxy); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	headers := cloneHeaders(req.Headers)
	body, err := buildOutboundBody(req.Body, headers)
	if err != nil {
		return nil, err
	}

	resolver := e.buildResolver(sess)
	frame := redirect.Frame{
		URL:     req.URL,
		Method:  req.Method,
		Body:    body,
		Headers: headers,
	}

	result, err := resolver.Resolve(ctx, frame)
	elapsed := time.Since(start)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.ObserveRequest("error", elapsed, 0)
		}
		return nil, err
	}

	decodedBody, err := decodeInboundBody(result.Final.Header, result.Final.Body)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.ObserveRequest("error", elapsed, result.Hops)
		}
		return nil, err
	}

	if e.Metrics != nil {
		e.Metrics.ObserveRequest("success", elapsed, result.Hops)
	}

	return &ResponseDescriptor{
		StatusCode:    result.Final.StatusCode,
		Headers:       map[string][]string(result.Final.Header),
		Body:          decodedBody,
		SessionHandle: sess.Handle,
		FinalURL:      result.FinalURL,
		RedirectCount: len(result.Chain),
		RedirectChain: result.Chain,
		ElapsedMs:     elapsed.Milliseconds(),
	}, nil
}

func (e *Engine) validate(req RequestDescriptor) error {
	if err := validate.Method(req.Method); err != nil {
		return err
	}
	if err := validate.TargetURL(req.URL); err != nil {
		return err
	}
	return validate.ProxyURL(req.Proxy)
}

// acquireSession resolves a registered session for a caller-supplied
// handle, or allocates an ephemeral one when no handle was given
// (spec.md §4.5).
func (e *Engine) acquireSession(handle string) (*session.Session, bool, error) {
	if handle == "" {
		s, err := e.Registry.NewEphemeral()
		return s, true, err
	}
	s, err := e.Registry.GetOrCreate(handle)
	return s, false, err
}

// buildResolver wires a redirect.Resolver around sess's transport, jar,
// and the header composer (C3).
func (e *Engine) buildResolver(sess *session.Session) *redirect.Resolver {
	return &redirect.Resolver{
		Transport: sess.Transport,
		ComposeHeaders: func(rawURL string, overrides map[string]string) (http.Header, error) {
			h, err := fingerprint.Compose(rawURL, overrides)
			if err != nil {
				return nil, err
			}
			return h.ToHTTPHeader(), nil
		},
		SelectCookies: func(rawURL string) (string, error) {
			cookies, err := sess.Jar.Select(rawURL)
			if err != nil {
				return "", errs.Wrap(errs.BadRequest, "orchestrator: select cookies", err)
			}
			return joinCookies(cookies), nil
		},
		IngestCookies: sess.Jar.Ingest,
	}
}

func joinCookies(cookies []*http.Cookie) string {
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
