package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type observerFunc func(method string, route string, status int, duration time.Duration)

func (f observerFunc) ObserveHTTP(method string, route string, status int, duration time.Duration) {
	f(method, route, status, duration)
}

func TestMetricsMiddleware(t *testing.T) {
	var got []observation
	observer := observerFunc(func(method string, route string, status int, _ time.Duration) {
		got = append(got, observation{method, route, status})
	})

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(observer))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, []observation{
		{"GET", "/items/{id}", http.StatusAccepted},
		{"GET", "/items/{id}", http.StatusAccepted},
		{"GET", "unmatched", http.StatusNotFound},
	}, got)
}
