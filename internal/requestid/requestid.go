// Package requestid provides request ID propagation via context.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the request ID on HTTP requests and responses.
const Header = "X-Request-ID"

// maxLen bounds client-supplied IDs before they reach logs.
const maxLen = 64

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// FromHeader returns the client-supplied ID if it is short printable ASCII, else a new ID.
func FromHeader(v string) string {
	if v == "" || len(v) > maxLen {
		return uuid.New().String()
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return uuid.New().String()
		}
	}
	return v
}
