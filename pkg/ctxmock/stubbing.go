package ctxmock

import "time"

// MockHandle is satisfied by any type embedding *ContextualMock,
// letting the DSL operate on the mock without knowing its concrete
// generated type.
type MockHandle interface {
	Identity() uint64
	registryHandle() *Registry
}

// AddRule installs rule directly for (mock, ctx), stamping CreatedAt
// from the mock's registry clock. This bypasses the When(...) probe
// pipeline for callers that already have a fully-formed Rule in hand -
// e.g. a declarative fixture loader building rules from a config file
// instead of a captured method expression.
func AddRule(mock MockHandle, ctx ContextID, rule *Rule) {
	rule.CreatedAt = mock.registryHandle().clock.Now()
	mock.registryHandle().AddStubbingRule(mock.Identity(), ctxKeyOf(ctx), rule)
}

// StubBuilder is the entry point of the stubbing pipeline: Given(mock)
// returns a builder that ForContext and When narrow down before a
// terminator commits a Rule.
type StubBuilder struct {
	mock MockHandle
	ctx  ContextID
}

// Given begins a stubbing pipeline for mock (spec.md §4.5/§6). Any
// type embedding ContextualMock automatically satisfies MockHandle
// through its exported Identity method.
func Given(mock MockHandle) *StubBuilder {
	return &StubBuilder{mock: mock}
}

// ForContext narrows the pipeline to ctx. If omitted, When uses
// whatever context is already current on the calling goroutine.
func (b *StubBuilder) ForContext(ctx ContextID) *StubBuilder {
	b.ctx = ctx
	return b
}

// OngoingStubbing is returned by When, configured with the captured
// method expression; it is completed by chaining WhenStateIs/
// WillSetStateTo/TTL and exactly one terminator.
type OngoingStubbing struct {
	mock MockHandle
	ctx  ContextID

	method       string
	args         []interface{}
	matchers     []Matcher
	hasState     bool
	requiredState interface{}
	hasNextState bool
	nextState    interface{}
	ttl          time.Duration

	terminated bool
}

// When runs methodCall as a probe: it sets stubbing-in-progress on the
// calling goroutine, invokes methodCall with the pipeline's context as
// the current context (so matchers registered inside it land in that
// context's buffer), and methodCall hits Called, which stashes the
// captured method/args/matchers instead of recording a real
// invocation. The flag and the previous context are restored on every
// exit path, including a panic inside methodCall (spec.md §4.5 step 1).
func (b *StubBuilder) When(methodCall func()) *OngoingStubbing {
	ctx := b.resolveContext()

	gs := currentGoroutineState()
	gs.beginStubbing()
	var captured *callCapture
	func() {
		defer func() { captured = gs.endProbe() }()
		WithContext(ctx, methodCall)
	}()

	if captured == nil || captured.method == "" {
		panic(&CaptureFailedError{Reason: "When(...) did not observe a method call on the mock"})
	}

	// Redundant with Called's own suppression of recording during a
	// probe, but spec.md §4.5 step 3 requires calling
	// RemoveLastInvocation unconditionally to handle implementations
	// that record even in stubbing mode.
	b.mock.registryHandle().RemoveLastInvocation(b.mock.Identity(), ctxKeyOf(ctx), goroutineID(), captured.method)

	return &OngoingStubbing{
		mock:     b.mock,
		ctx:      ctx,
		method:   captured.method,
		args:     captured.args,
		matchers: captured.matchers,
	}
}

func (b *StubBuilder) resolveContext() ContextID {
	if b.ctx != nil {
		return b.ctx
	}
	ctx, ok := currentGoroutineState().getContext()
	if !ok {
		panic(ErrMissingContext)
	}
	return ctx
}

func ctxKeyOf(ctx ContextID) string {
	if ctx == nil {
		return ""
	}
	return ctx.ContextKey()
}

// WhenStateIs restricts this rule to fire only when the per-context
// state equals s.
func (s *OngoingStubbing) WhenStateIs(state interface{}) *OngoingStubbing {
	s.hasState = true
	s.requiredState = state
	return s
}

// WillSetStateTo makes this rule transition the per-context state to
// s after it fires.
func (s *OngoingStubbing) WillSetStateTo(state interface{}) *OngoingStubbing {
	s.hasNextState = true
	s.nextState = state
	return s
}

// TTL makes this rule stop matching after d has elapsed since
// construction.
func (s *OngoingStubbing) TTL(d time.Duration) *OngoingStubbing {
	s.ttl = d
	return s
}

func (s *OngoingStubbing) terminate(action Action) {
	if s.terminated {
		panic(&StubbingMisuseError{Message: "a terminator (ThenReturn/ThenPanic/ThenAnswer) was already called on this stubbing"})
	}
	s.terminated = true

	rule := &Rule{
		Method:           s.method,
		Matchers:         s.matchers,
		ExpectedArgs:     s.args,
		HasRequiredState: s.hasState,
		RequiredState:    s.requiredState,
		HasNextState:     s.hasNextState,
		NextState:        s.nextState,
		Action:           action,
		CreatedAt:        s.mock.registryHandle().clock.Now(),
		TTL:              s.ttl,
	}
	s.mock.registryHandle().AddStubbingRule(s.mock.Identity(), ctxKeyOf(s.ctx), rule)
}

// ThenReturn terminates the stubbing with a Return action.
func (s *OngoingStubbing) ThenReturn(vals ...interface{}) {
	s.terminate(Return(vals...))
}

// ThenPanic terminates the stubbing with a Panic action (this
// engine's analogue of spec.md's thenThrow).
func (s *OngoingStubbing) ThenPanic(v interface{}) {
	s.terminate(Panic(v))
}

// ThenAnswer terminates the stubbing with an Answer action.
func (s *OngoingStubbing) ThenAnswer(f AnswerFunc) {
	s.terminate(Answer(f))
}
