// Package requestid assigns a correlation ID to every request, honoring an
// inbound X-Request-ID header when the caller supplies one.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"dugout/pkg/requestcontext"
)

const Header = "X-Request-ID"

// Middleware ensures the context carries a request ID and echoes it back on
// the response so callers can correlate logs.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
