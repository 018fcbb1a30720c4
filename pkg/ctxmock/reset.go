package ctxmock

// Reset drops every rule, invocation, and state entry for mock across
// all contexts, or - if ctx is supplied - for a single (mock, context)
// pair only (spec.md §6).
func Reset(mock MockHandle, ctx ...ContextID) {
	if len(ctx) == 0 {
		mock.registryHandle().Reset(mock.Identity())
		return
	}
	for _, c := range ctx {
		mock.registryHandle().ResetContext(mock.Identity(), ctxKeyOf(c))
	}
}
