package tools

import (
	"context"

	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
)

// InvocationContext carries per-call host metadata through the context tree.
// It is set by whoever invokes a tool (CLI, gateway) and read inside Execute,
// so tool singletons hold no per-call state.
type InvocationContext struct {
	// ID correlates events with the host request that triggered them.
	ID string
	// Emitter receives status and stream events; nil means the host does
	// not listen.
	Emitter deepsearch.Emitter
}

type invocationKey struct{}

// WithInvocation returns a child context that carries ic.
func WithInvocation(ctx context.Context, ic InvocationContext) context.Context {
	return context.WithValue(ctx, invocationKey{}, ic)
}

// InvocationCtx extracts the InvocationContext from ctx.
// Returns a zero-value InvocationContext if none was set.
func InvocationCtx(ctx context.Context) InvocationContext {
	ic, _ := ctx.Value(invocationKey{}).(InvocationContext)
	return ic
}
