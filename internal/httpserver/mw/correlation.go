package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/trace"
)

// Correlation stores the request's correlation id in its context, taken
// from X-Correlation-ID when valid or generated, and echoes it back.
func Correlation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := trace.FromRequest(r)
			w.Header().Set(trace.Header, id)
			next.ServeHTTP(w, r.WithContext(trace.WithID(r.Context(), id)))
		})
	}
}
