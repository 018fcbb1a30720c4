package example

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextual-mocker/ctxmock/pkg/ctxmock"
)

// S1: basic stubbing - a rule set under one context fires only for
// that context, and an unrelated context sees no stub.
func TestS1_BasicStubbing(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)

	tenantA := ctxmock.StringContext("tenant-a")
	tenantB := ctxmock.StringContext("tenant-b")

	ctxmock.Given(mock).ForContext(tenantA).
		When(func() { mock.Send("a@example.com") }).
		ThenReturn(true)

	ctxmock.WithContext(tenantA, func() {
		assert.True(t, mock.Send("a@example.com"))
	})
	ctxmock.WithContext(tenantB, func() {
		assert.False(t, mock.Send("a@example.com"))
	})
}

// S2: matchers - Contains narrows which calls a rule fires for.
func TestS2_Matchers(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Send(ctxmock.Contains("@corp.example")) }).
		ThenReturn(true)

	ctxmock.WithContext(ctx, func() {
		assert.True(t, mock.Send("alice@corp.example"))
		assert.False(t, mock.Send("alice@other.example"))
	})
}

// S3: state machine - a rule only fires when the per-context state
// matches its precondition, and transitions state when it fires.
func TestS3_StateMachine(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Send(ctxmock.AnyString()) }).
		WillSetStateTo("queued").
		ThenReturn(true)

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Pop() }).
		WhenStateIs("queued").
		WillSetStateTo("popped").
		ThenReturn("first-email")

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "", mock.Pop(), "precondition not yet satisfied")

		mock.Send("start@example.com")
		assert.Equal(t, "first-email", mock.Pop())
		assert.Equal(t, "", mock.Pop(), "state already advanced past the precondition")
	})
}

// S4: newest-wins - when two rules both match, the one added last
// fires.
func TestS4_NewestWins(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Get("id-1") }).
		ThenReturn("first-value")
	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Get("id-1") }).
		ThenReturn("second-value")

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "second-value", mock.Get("id-1"))
	})
}

// S5: verification plus a failure message containing the recorded
// invocations.
func TestS5_Verification(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.WithContext(ctx, func() {
		mock.Send("a@example.com")
		mock.Send("a@example.com")
	})

	ctxmock.Verify(mock).ForContext(ctx).
		That(ctxmock.Times(2), func() { mock.Send(ctxmock.AnyString()) })

	err := captureVerificationPanic(func() {
		ctxmock.Verify(mock).ForContext(ctx).
			That(ctxmock.Times(5), func() { mock.Send(ctxmock.AnyString()) })
	})
	require.Error(t, err)
	assert.True(t, ctxmock.IsVerificationFailed(err))
	assert.Contains(t, err.Error(), "expected=times(5)")
	assert.Contains(t, err.Error(), "observed=2")
}

func captureVerificationPanic(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	f()
	return nil
}

// S6: TTL expiry via an injected MockClock - no real sleeping.
func TestS6_TTLExpiry(t *testing.T) {
	clock := ctxmock.NewMockClock(time.Unix(0, 0))
	registry := ctxmock.NewRegistry(clock)

	mock := NewMockEmailService()
	mock.UseRegistry(registry)
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Get("id-1") }).
		TTL(time.Minute).
		ThenReturn("fresh-value")

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "fresh-value", mock.Get("id-1"))
	})

	clock.Advance(2 * time.Minute)

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "", mock.Get("id-1"), "rule should have expired")
	})
}

// S7: a spy falls back to the real collaborator when no rule matches,
// and an explicit stub overrides the real collaborator when one does.
func TestS7_SpyFallbackAndOverride(t *testing.T) {
	real := NewRealEmailService()
	spy := NewSpyEmailService(real)
	defer ctxmock.Reset(spy)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "real:id-9", spy.Get("id-9"), "falls back to the real implementation")
	})

	ctxmock.Given(spy).ForContext(ctx).
		When(func() { spy.Get("id-9") }).
		ThenReturn("overridden")

	ctxmock.WithContext(ctx, func() {
		assert.Equal(t, "overridden", spy.Get("id-9"))
	})

	// A spy tolerates calls with no current context: simply delegates,
	// unlike a pure mock which would panic with ErrMissingContext.
	assert.Equal(t, "real:id-10", spy.Get("id-10"))
}

// Testable property: matcher isolation - matchers registered for one
// call expression never leak into the next call on the same mock.
func TestProperty_MatcherIsolation(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.Given(mock).ForContext(ctx).
		When(func() { mock.Send(ctxmock.Contains("@corp.example")) }).
		ThenReturn(true)

	ctxmock.WithContext(ctx, func() {
		// A plain literal call with no matcher must not pick up the
		// matcher buffer from the stubbing above.
		assert.False(t, mock.Send("plain@other.example"))
	})
}

// Testable property: context isolation - state set in one context is
// invisible to another context on the same mock.
func TestProperty_ContextIsolation(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	tenantA := ctxmock.StringContext("tenant-a")
	tenantB := ctxmock.StringContext("tenant-b")

	ctxmock.Given(mock).ForContext(tenantA).
		When(func() { mock.Send(ctxmock.AnyString()) }).
		WillSetStateTo("queued").
		ThenReturn(true)
	ctxmock.Given(mock).ForContext(tenantA).
		When(func() { mock.Pop() }).
		WhenStateIs("queued").
		ThenReturn("tenant-a-email")
	ctxmock.Given(mock).ForContext(tenantB).
		When(func() { mock.Pop() }).
		WhenStateIs("queued").
		ThenReturn("tenant-b-email")

	ctxmock.WithContext(tenantA, func() {
		mock.Send("a@example.com")
		assert.Equal(t, "tenant-a-email", mock.Pop())
	})
	ctxmock.WithContext(tenantB, func() {
		assert.Equal(t, "", mock.Pop(), "state transition in tenant-a must not leak into tenant-b")
	})
}

// Testable property: verification match count only counts calls that
// satisfy the verification's own matchers, not every call to that
// method.
func TestProperty_VerificationMatchCount(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)
	ctx := ctxmock.StringContext("tenant-a")

	ctxmock.WithContext(ctx, func() {
		mock.Send("a@corp.example")
		mock.Send("b@other.example")
		mock.Send("c@corp.example")
	})

	ctxmock.Verify(mock).ForContext(ctx).
		That(ctxmock.Times(2), func() { mock.Send(ctxmock.Contains("@corp.example")) })
}

// Testable property: object-root neutrality - Identity/String never
// require a context or touch rules/invocations/state.
func TestProperty_ObjectRootNeutrality(t *testing.T) {
	mock := NewMockEmailService()
	defer ctxmock.Reset(mock)

	id1 := mock.Identity()
	id2 := mock.Identity()
	assert.Equal(t, id1, id2)
	assert.Contains(t, mock.String(), "EmailService")
}
