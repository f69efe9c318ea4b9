package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/cinelog/internal/model"
)

// --- テスト ---

// TestLoggingMiddleware はリクエストログにmethod・path・statusが含まれることを検証する。
func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	mw := NewLoggingMiddleware(logger)

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movie/m1", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", entry["method"])
	}
	if entry["path"] != "/movie/m1" {
		t.Errorf("expected path /movie/m1, got %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("expected status 404, got %v", entry["status"])
	}
	// 4xxはWARNレベルで出力される
	if entry["level"] != "WARN" {
		t.Errorf("expected WARN level for 4xx, got %v", entry["level"])
	}
}

// TestLoggingMiddleware_AuthenticatedUser は認証済みセッションのリクエストログに
// user_emailが含まれることを検証する。
func TestLoggingMiddleware_AuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	session := &model.Session{ID: "session-1", UserEmail: "alice@example.com"}
	req = req.WithContext(ContextWithSession(req.Context(), session))

	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["user_email"] != "alice@example.com" {
		t.Errorf("expected user_email in log, got %v", entry["user_email"])
	}
}

// TestMetricsMiddleware はステータスコードと処理時間が記録されることを検証する。
func TestMetricsMiddleware(t *testing.T) {
	var recordedStatus int
	var recordedDuration time.Duration

	recorder := &mockHTTPMetrics{
		statusFn:   func(code int) { recordedStatus = code },
		durationFn: func(d time.Duration) { recordedDuration = d },
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := NewMetricsMiddleware(recorder)

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign-up", nil))

	if recordedStatus != http.StatusCreated {
		t.Errorf("expected recorded status 201, got %d", recordedStatus)
	}
	if recordedDuration < 0 {
		t.Errorf("expected non-negative duration, got %v", recordedDuration)
	}
}

type mockHTTPMetrics struct {
	statusFn   func(code int)
	durationFn func(d time.Duration)
}

func (m *mockHTTPMetrics) RecordHTTPStatus(code int)             { m.statusFn(code) }
func (m *mockHTTPMetrics) RecordRequestDuration(d time.Duration) { m.durationFn(d) }
