package redirect_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/firasghr/GoSessionEngine/redirect"
)

// scriptedExchanger replays a fixed sequence of responses keyed by call
// order, and records every request it receives.
type scriptedExchanger struct {
	responses []redirect.Exchange
	requests  []recordedRequest
}

type recordedRequest struct {
	method string
	url    string
	header http.Header
	body   []byte
}

func (s *scriptedExchanger) Do(_ context.Context, method, rawURL string, headers http.Header, body []byte) (*redirect.Exchange, error) {
	i := len(s.requests)
	s.requests = append(s.requests, recordedRequest{method: method, url: rawURL, header: headers, body: body})
	if i >= len(s.responses) {
		panic("scriptedExchanger: ran out of responses")
	}
	resp := s.responses[i]
	return &resp, nil
}

func noopResolver(ex *scriptedExchanger) *redirect.Resolver {
	return &redirect.Resolver{
		Transport:      ex,
		ComposeHeaders: func(string, map[string]string) (http.Header, error) { return http.Header{}, nil },
	}
}

func TestResolve_NoRedirect(t *testing.T) {
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 200, Header: http.Header{}},
	}}
	r := noopResolver(ex)

	res, err := r.Resolve(context.Background(), redirect.Frame{URL: "https://example.com/", Method: "GET"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Hops != 0 || len(res.Chain) != 0 || res.FinalURL != "https://example.com/" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolve_303DropsMethodAndBody(t *testing.T) {
	h := http.Header{}
	h.Set("Location", "/next")
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 303, Header: h},
		{StatusCode: 200, Header: http.Header{}},
	}}
	r := noopResolver(ex)

	_, err := r.Resolve(context.Background(), redirect.Frame{
		URL: "https://example.com/a", Method: "POST", Body: []byte(`{"x":1}`),
		Headers: map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second := ex.requests[1]
	if second.method != http.MethodGet {
		t.Errorf("expected GET after 303, got %s", second.method)
	}
	if second.body != nil {
		t.Errorf("expected nil body after 303, got %q", second.body)
	}
}

func TestResolve_302PreservesMethodAndBody(t *testing.T) {
	h := http.Header{}
	h.Set("Location", "/next")
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 302, Header: h},
		{StatusCode: 200, Header: http.Header{}},
	}}
	r := noopResolver(ex)

	_, err := r.Resolve(context.Background(), redirect.Frame{
		URL: "https://example.com/a", Method: "POST", Body: []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second := ex.requests[1]
	if second.method != http.MethodPost {
		t.Errorf("expected POST preserved after 302, got %s", second.method)
	}
	if string(second.body) != "payload" {
		t.Errorf("expected body preserved after 302, got %q", second.body)
	}
}

func TestResolve_TooManyRedirects(t *testing.T) {
	var responses []redirect.Exchange
	for i := 0; i < redirect.MaxHops+1; i++ {
		h := http.Header{}
		h.Set("Location", "/step"+string(rune('0'+i)))
		responses = append(responses, redirect.Exchange{StatusCode: 302, Header: h})
	}
	ex := &scriptedExchanger{responses: responses}
	r := noopResolver(ex)

	_, err := r.Resolve(context.Background(), redirect.Frame{URL: "https://example.com/start", Method: "GET"})
	if err == nil {
		t.Fatal("expected too_many_redirects error")
	}
}

func TestResolve_LoopDetection(t *testing.T) {
	h1 := http.Header{}
	h1.Set("Location", "https://example.com/loop")
	h2 := http.Header{}
	h2.Set("Location", "https://example.com/start")
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 302, Header: h1},
		{StatusCode: 302, Header: h2},
	}}
	r := noopResolver(ex)

	_, err := r.Resolve(context.Background(), redirect.Frame{URL: "https://example.com/start", Method: "GET"})
	if err == nil {
		t.Fatal("expected redirect_loop error")
	}
}

func TestResolve_MissingLocation(t *testing.T) {
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 302, Header: http.Header{}},
	}}
	r := noopResolver(ex)

	_, err := r.Resolve(context.Background(), redirect.Frame{URL: "https://example.com/", Method: "GET"})
	if err == nil {
		t.Fatal("expected malformed_redirect error")
	}
}

func TestResolve_CrossOriginDropsAuthorization(t *testing.T) {
	h := http.Header{}
	h.Set("Location", "https://other.com/next")
	ex := &scriptedExchanger{responses: []redirect.Exchange{
		{StatusCode: 302, Header: h},
		{StatusCode: 200, Header: http.Header{}},
	}}
	r := &redirect.Resolver{
		Transport: ex,
		ComposeHeaders: func(_ string, overrides map[string]string) (http.Header, error) {
			out := http.Header{}
			for k, v := range overrides {
				out.Set(k, v)
			}
			return out, nil
		},
	}

	_, err := r.Resolve(context.Background(), redirect.Frame{
		URL: "https://example.com/a", Method: "GET",
		Headers: map[string]string{"Authorization": "Bearer secret"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second := ex.requests[1]
	if second.header.Get("Authorization") != "" {
		t.Errorf("expected Authorization stripped on cross-origin hop, got %q", second.header.Get("Authorization"))
	}
}
