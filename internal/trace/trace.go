// Package trace carries the correlation id of a logical request so the
// remote log service can group entries produced while serving it.
package trace

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Header is the correlation id header, inbound and upstream.
const Header = "X-Correlation-ID"

type ctxKey struct{}

// NewID returns a fresh correlation id.
func NewID() string {
	return uuid.NewString()
}

// WithID stores id in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ID returns the correlation id stored in ctx, or "".
func ID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// FromRequest returns the inbound correlation id when it is a valid uuid,
// otherwise a new one.
func FromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(Header))
	if raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
	}
	return NewID()
}

// Propagate copies the correlation id of ctx onto an outgoing request.
func Propagate(ctx context.Context, req *http.Request) {
	if id := ID(ctx); id != "" && req.Header.Get(Header) == "" {
		req.Header.Set(Header, id)
	}
}
