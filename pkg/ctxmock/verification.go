package ctxmock

import "github.com/contextual-mocker/ctxmock/pkg/ctxlog"

// VerifyBuilder is the entry point of the verification pipeline:
// Verify(mock).ForContext(ctx).Verify(mode).Check(func(){ mock.m(args) }) or
// Verify(mock).ForContext(ctx).That(mode, func(){ mock.m(args) }).
type VerifyBuilder struct {
	mock MockHandle
	ctx  ContextID
}

// Verify begins a verification pipeline for mock (spec.md §4.5/§6).
func Verify(mock MockHandle) *VerifyBuilder {
	return &VerifyBuilder{mock: mock}
}

// ForContext narrows the pipeline to ctx. If omitted, the pipeline
// uses whatever context is current on the calling goroutine.
func (b *VerifyBuilder) ForContext(ctx ContextID) *VerifyBuilder {
	b.ctx = ctx
	return b
}

// OngoingVerification is returned by Verify(mode); the user passes the
// method call to be verified to its Check method exactly once.
type OngoingVerification struct {
	mock MockHandle
	ctx  ContextID
	mode VerificationMode
}

// Verify returns an OngoingVerification configured with mode. The
// caller then passes a closure calling the method to verify to the
// returned value's Check exactly once; Check runs the matching
// algorithm and applies mode, panicking with a *VerificationFailedError
// on failure (spec.md §4.5 step 2).
func (b *VerifyBuilder) Verify(mode VerificationMode) *OngoingVerification {
	return &OngoingVerification{mock: b.mock, ctx: b.resolveContext(), mode: mode}
}

func (b *VerifyBuilder) resolveContext() ContextID {
	if b.ctx != nil {
		return b.ctx
	}
	ctx, ok := currentGoroutineState().getContext()
	if !ok {
		panic(ErrMissingContext)
	}
	return ctx
}

// probe runs methodCall as a probe call that captures (method, args,
// matchers) without recording a real invocation, the same mechanism
// OngoingStubbing.When uses.
func probe(methodCall func()) *callCapture {
	gs := currentGoroutineState()
	gs.beginVerification()
	var captured *callCapture
	func() {
		defer func() { captured = gs.endProbe() }()
		methodCall()
	}()
	if captured == nil || captured.method == "" {
		panic(&CaptureFailedError{Reason: "verification did not observe a method call on the mock"})
	}
	return captured
}

// Check runs methodCall as a probe, with this verification's context as
// the current context, and evaluates it against this verification's
// mode, panicking with a *VerificationFailedError on failure. Go has no
// dynamic proxy to make "verify(mode).method(args)" read as two
// separate calls on the same interface the way spec.md's source
// language does, so this module collapses it into one closure (That
// does the same in a single call alongside Verify).
func (ov *OngoingVerification) Check(methodCall func()) {
	var captured *callCapture
	WithContext(ov.ctx, func() { captured = probe(methodCall) })
	ov.evaluate(captured)
}

func (ov *OngoingVerification) evaluate(captured *callCapture) {
	ctxKey := ctxKeyOf(ov.ctx)
	all := ov.mock.registryHandle().Invocations(ov.mock.Identity(), ctxKey)

	matched := make([]*InvocationRecord, 0, len(all))
	for _, rec := range all {
		if rec.Method != captured.method {
			continue
		}
		if !matchesRecorded(captured, rec) {
			continue
		}
		matched = append(matched, rec)
	}

	if err := ov.mode.verify(len(matched)); err != nil {
		ctxlog.Debug("verification failed", "mock", ov.mock.Identity(), "method", captured.method, "expected", ov.mode.String(), "observed", len(matched))
		panic(&VerificationFailedError{
			Method:   captured.method,
			Args:     captured.args,
			Context:  ov.ctx,
			Expected: ov.mode.String(),
			Observed: len(matched),
			Recorded: all,
		})
	}

	for _, rec := range matched {
		rec.verified = true
	}
}

// matchesRecorded applies spec.md §4.3's predicate rules to a recorded
// invocation, the same as rule argument matching.
func matchesRecorded(captured *callCapture, rec *InvocationRecord) bool {
	r := &Rule{Matchers: captured.matchers, ExpectedArgs: captured.args}
	return r.matchesArgs(rec.Args)
}

// That performs the probe and verification in a single call, matching
// spec.md §4.5 step 3's that(mode, methodCall) entry point.
func (b *VerifyBuilder) That(mode VerificationMode, methodCall func()) {
	ov := b.Verify(mode)
	ov.Check(methodCall)
}
