package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/jobboard/api"
	"github.com/garnizeh/jobboard/pkg/repository/mock"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	handler := api.LoggingMiddleware(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/log", nil))

	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body %q", b)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.RequestIDFromContext(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" {
			t.Fatalf("expected a generated request id")
		}
		if got := w.Header().Get("X-Request-ID"); got != seen {
			t.Fatalf("header %q does not match context id %q", got, seen)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if seen != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
			t.Fatalf("request id not propagated: ctx=%q header=%q", seen, w.Header().Get("X-Request-ID"))
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	handler := api.CORSMiddleware([]string{"http://localhost:3000"})(okHandler())

	pre := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	pre.Header.Set("Origin", "http://localhost:3000")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, pre)
	if w.Code >= 300 {
		t.Fatalf("preflight failed with %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut) {
		t.Fatalf("PUT not allowed: %q", w.Header().Get("Access-Control-Allow-Methods"))
	}

	get := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	get.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, get)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}

func TestCORSPreflightThroughRouter(t *testing.T) {
	router := newRouter(t, mock.NewMocks())

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs/j1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code >= 300 {
		t.Fatalf("preflight failed with %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	api.RecoveryMiddleware(pan).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	assertJSON(t, w.Body.Bytes(), `{"error":"internal server error"}`)

	w = httptest.NewRecorder()
	api.RecoveryMiddleware(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	handler := api.RateLimiter(api.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})(okHandler())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for _, remote := range []string{"10.0.0.1:1000", "10.0.0.1:1001"} {
		if code := send(remote).Code; code != http.StatusOK {
			t.Fatalf("request within burst got %d", code)
		}
	}

	w := send("10.0.0.1:1002")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	assertJSON(t, w.Body.Bytes(), `{"error":"rate limit exceeded"}`)

	if code := send("10.0.0.2:1000").Code; code != http.StatusOK {
		t.Fatalf("other clients keep their own budget, got %d", code)
	}
}

func TestTimeout_HandlerFinishesAndAnswers(t *testing.T) {
	var ctxErr error
	finished := false
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); !ok {
			t.Errorf("request context carries no deadline")
		}
		<-r.Context().Done()
		ctxErr = r.Context().Err()
		finished = true
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	api.Timeout(20*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/slow", nil))

	if !finished {
		t.Fatalf("middleware returned before the handler finished")
	}
	if !errors.Is(ctxErr, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", ctxErr)
	}
	if w.Code != http.StatusAccepted {
		t.Fatalf("the handler's own response must reach the client, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	api.Timeout(0)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
