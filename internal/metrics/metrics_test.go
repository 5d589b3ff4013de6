package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("observe http", func(t *testing.T) {
		m := New()

		m.ObserveHTTP("POST", "/auth/login", 200, 10*time.Millisecond)
		m.ObserveHTTP("POST", "/auth/login", 200, 20*time.Millisecond)
		m.ObserveHTTP("POST", "/auth/login", 401, 5*time.Millisecond)

		require.InDelta(t, 2, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/auth/login", "200")), 0)
		require.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/auth/login", "401")), 0)
		require.Equal(t, 1, testutil.CollectAndCount(m.httpDuration), "one series per route and method")
	})

	t.Run("auth events", func(t *testing.T) {
		m := New()

		m.AuthEvent("login", OutcomeRejected)
		m.AuthEvent("login", OutcomeRejected)
		m.AuthEvent("register", OutcomeSuccess)

		require.InDelta(t, 2, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeRejected)), 0)
		require.InDelta(t, 1, testutil.ToFloat64(m.authEvents.WithLabelValues("register", OutcomeSuccess)), 0)
	})

	t.Run("handler exposes metrics", func(t *testing.T) {
		m := New()
		m.AuthEvent("refresh", OutcomeSuccess)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `aquanexus_auth_events_total{operation="refresh",outcome="success"} 1`)
		require.Contains(t, string(body), "go_goroutines", "runtime metrics should be exposed")
	})
}
