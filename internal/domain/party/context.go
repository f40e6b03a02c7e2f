package party

import "context"

type ctxKey struct{}

// ContextWithCaller stores the verified caller identity on a context. The
// bearer-token middleware calls this after verification; tests use it to
// stand in for that middleware.
func ContextWithCaller(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CallerFromContext returns the verified caller identity, or the zero ID
// when the request never passed token verification.
func CallerFromContext(ctx context.Context) ID {
	id, _ := ctx.Value(ctxKey{}).(ID)
	return id
}
