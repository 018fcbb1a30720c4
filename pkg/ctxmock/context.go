package ctxmock

// ContextID is the opaque, value-equal token that partitions every
// mock interaction. The registry never compares context ids with Go's
// "==" on the interface value (some user-defined ids may embed slices
// or maps, which would panic), so every implementation supplies a
// stable ContextKey instead.
type ContextID interface {
	// ContextKey returns a stable, comparable identity for this
	// context. Two ContextIDs represent the same context if and only
	// if their ContextKey values are equal strings.
	ContextKey() string
}

// StringContext is the simplest ContextID: a named string, typically
// a tenant, session, or user identifier.
type StringContext string

// ContextKey implements ContextID.
func (s StringContext) ContextKey() string { return "str:" + string(s) }

// SetContext sets the current context for the calling goroutine. A
// nil ctx clears it, equivalent to calling ClearContext.
func SetContext(ctx ContextID) {
	currentGoroutineState().setContext(ctx)
}

// ClearContext clears the current context for the calling goroutine.
func ClearContext() {
	currentGoroutineState().clearContext()
}

// CurrentContext returns the context currently set on the calling
// goroutine, or ErrMissingContext if none is set.
func CurrentContext() (ContextID, error) {
	ctx, ok := currentGoroutineState().getContext()
	if !ok {
		return nil, ErrMissingContext
	}
	return ctx, nil
}

// WithContext sets ctx as the current context for the calling
// goroutine, runs f, then restores whatever context was active before
// the call - on every exit path, including a panic inside f. This is
// the only sanctioned way application or test code should acquire the
// current-context slot around a block of calls.
func WithContext(ctx ContextID, f func()) {
	gs := currentGoroutineState()
	previous, hadPrevious := gs.getContext()
	gs.setContext(ctx)
	defer func() {
		if hadPrevious {
			gs.setContext(previous)
		} else {
			gs.clearContext()
		}
	}()
	f()
}
