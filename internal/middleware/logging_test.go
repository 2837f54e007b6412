package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestResponseWriter_CapturesStatusAndSize tests the wrapper bookkeeping.
func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rw.statusCode)
	}
	if rw.size != 5 {
		t.Errorf("expected size 5, got %d", rw.size)
	}
}

// TestResponseWriter_FirstStatusWins tests duplicate WriteHeader handling.
func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected first status 404 to stick, got %d", rw.statusCode)
	}
}

// TestResponseWriter_DefaultStatus tests the implicit 200.
func TestResponseWriter_DefaultStatus(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())
	if _, err := rw.Write([]byte("ok")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("expected default 200, got %d", rw.statusCode)
	}
}

// TestNewLogger tests handler selection by environment.
func TestNewLogger(t *testing.T) {
	if NewLogger("production") == nil {
		t.Error("expected production logger")
	}
	if NewLogger("development") == nil {
		t.Error("expected development logger")
	}
}

// TestLogging_EmitsStructuredFields tests the completion log line.
func TestLogging_EmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/feed", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{
		`"method":"POST"`,
		`"path":"/v1/feed"`,
		`"status":201`,
		`"request_id":`,
		`"size":7`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got %s", want, out)
		}
	}
}

// TestLogging_LevelByStatus tests log level escalation for error responses.
func TestLogging_LevelByStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected string
	}{
		{name: "success logs info", status: http.StatusOK, expected: `"level":"INFO"`},
		{name: "client error logs warn", status: http.StatusBadRequest, expected: `"level":"WARN"`},
		{name: "server error logs error", status: http.StatusInternalServerError, expected: `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in log, got %s", tt.expected, buf.String())
			}
		})
	}
}
