package orchestrator

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/firasghr/GoSessionEngine/config"
	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/session"
)

func testEngine() *Engine {
	cfg := &config.Config{SessionTTL: time.Hour, MaxSessions: 10, RequestTimeout: 5 * time.Second}
	return NewEngine(session.NewRegistry(cfg, nil), nil)
}

func TestExecute_RejectsBadMethod(t *testing.T) {
	e := testEngine()
	_, err := e.Execute(context.Background(), RequestDescriptor{Method: "TRACE", URL: "https://example.com"})
	var ee *errs.Error
	if !errs.As(err, &ee) || ee.Kind != errs.BadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestExecute_RejectsBadURL(t *testing.T) {
	e := testEngine()
	_, err := e.Execute(context.Background(), RequestDescriptor{Method: "GET", URL: "ftp://example.com"})
	var ee *errs.Error
	if !errs.As(err, &ee) || ee.Kind != errs.BadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestExecute_RejectsBadProxy(t *testing.T) {
	e := testEngine()
	_, err := e.Execute(context.Background(), RequestDescriptor{
		Method: "GET", URL: "https://example.com", Proxy: "ftp://proxy.example.com",
	})
	var ee *errs.Error
	if !errs.As(err, &ee) || ee.Kind != errs.BadRequest {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestJoinCookies(t *testing.T) {
	cookies := []*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}
	if got := joinCookies(cookies); got != "a=1; b=2" {
		t.Errorf("joinCookies = %q", got)
	}
	if got := joinCookies(nil); got != "" {
		t.Errorf("joinCookies(nil) = %q, want empty", got)
	}
}

func TestCloneHeaders_Independent(t *testing.T) {
	src := map[string]string{"X-A": "1"}
	clone := cloneHeaders(src)
	clone["X-A"] = "2"
	if src["X-A"] != "1" {
		t.Error("cloneHeaders should not alias the source map")
	}
}
