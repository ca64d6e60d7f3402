package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/ws", "/ws"},
		{"/api/v1/guilds/analyze", "/api/v1/guilds/analyze"},
		{"/api/v1/guilds/123/report/latest", "/api/v1/guilds/{id}/report/latest"},
		{"/api/v1/guilds/123/history", "/api/v1/guilds/{id}/history"},
		{"/api/v1/unknown", "/api/*"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		if got := normalizeRoute(tt.path); got != tt.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/guilds/42/report/latest", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/v1/guilds/{id}/report/latest", http.MethodGet, "404"))
	if got != 1 {
		t.Fatalf("expected 1 request recorded, got %v", got)
	}
}

func TestSessionObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionStarted()
	if testutil.ToFloat64(m.SessionsInFlight) != 1 {
		t.Fatal("expected one session in flight")
	}

	m.SessionFinished(session.OutcomeTimedOut, 15*time.Second)
	if testutil.ToFloat64(m.SessionsInFlight) != 0 {
		t.Fatal("expected no sessions in flight")
	}
	if testutil.ToFloat64(m.SessionsTotal.WithLabelValues("timed_out")) != 1 {
		t.Fatal("expected timed_out outcome to be counted")
	}
}
