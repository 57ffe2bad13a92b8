package secctx

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying rc. Binding the request context
// to the logical request's context.Context keeps it invisible to other
// requests even when they share OS threads, and a suspend/resume inside one
// request cannot leak it into another.
func NewContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the RequestContext bound to ctx, or nil when the
// request is not under security coordination.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rc
}
