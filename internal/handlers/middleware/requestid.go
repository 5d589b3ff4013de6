package middleware

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

const RequestIDHeader = "X-Request-ID"

// Incoming ids longer than that are replaced
const maxRequestIDLength = 64

type requestIDKey struct{}

// Take request id from the header or generate new one
// Id is put to the context and echoed back in response header
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = ulid.Make().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
