// Package middleware carries the HTTP request pipeline: request IDs,
// structured request logging, and request metrics.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID across service hops. Inbound values
// are reused as-is so one ID follows a request through the gateway.
const RequestIDHeader = "X-Request-ID"

type ctxKeyRequestID struct{}

// RequestID tags every request with an ID for log correlation. A request
// arriving without the header gets a fresh UUID; either way the ID is echoed
// on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the ID stored by the RequestID middleware, or ""
// when the middleware did not run.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}
