package ctxmock

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// nextIdentity mints the stable uint64 identity token every
// ContextualMock is assigned on first use. Go has no reference
// identity usable directly as a weakly-held map key the way spec.md's
// source language does, so identity is a minted token (see DESIGN.md
// Open Question 3) instead of the mock's own pointer value.
var identityCounter uint64

func nextIdentity() uint64 {
	return atomic.AddUint64(&identityCounter, 1)
}

// ContextualMock is embedded as the first field of a generated or
// hand-written mock type and routes every method through Called, the
// same embeddable shape stretchr/testify's mock.Mock uses - Go has no
// dynamic proxy facility, so this replaces spec.md's out-of-scope
// ProxyFactory (see spec.md §9 "Dynamic proxy generation").
//
// ContextualMock must be the first field of its enclosing struct: its
// identity token's reclaim cleanup is registered on &ContextualMock
// itself, which only shares an address (and therefore a lifetime) with
// the enclosing mock when it sits at offset zero.
type ContextualMock struct {
	once     sync.Once
	identity uint64
	typeName string
	spy      bool

	registry *Registry
}

// ensureInit lazily assigns an identity token, registers it with the
// registry, and arranges for the registry entry to be pruned once this
// mock becomes unreachable (spec.md's weakly-held mock policy, §3/§5).
func (m *ContextualMock) ensureInit() {
	m.once.Do(func() {
		m.identity = nextIdentity()
		if m.registry == nil {
			m.registry = defaultRegistry
		}
		if m.typeName == "" {
			m.typeName = "Mock"
		}
		m.registry.registerMock(m.identity, m.typeName, m.spy)
		registry := m.registry
		identity := m.identity
		runtime.AddCleanup(m, func(id uint64) { registry.pruneMock(id) }, identity)
	})
}

// UseRegistry overrides the registry this mock uses instead of the
// package default. Must be called before the mock's first method call.
func (m *ContextualMock) UseRegistry(r *Registry) *ContextualMock {
	m.registry = r
	return m
}

// Named sets the type name shown in String(). Typically called once
// from a generated mock's constructor, e.g. NewMockEmailService.
func (m *ContextualMock) Named(typeName string) *ContextualMock {
	m.typeName = typeName
	return m
}

// Spy marks this mock as a spy: dispatch tolerates an absent current
// context (the call is simply not recorded, see Called) and String()
// renders as "Spy of <Name>@<hex>" instead of
// "ContextualMock<Name>@<hex>".
func (m *ContextualMock) Spy() *ContextualMock {
	m.spy = true
	return m
}

// Identity returns this mock's stable identity token. Unlike Go's "==",
// this never touches the registry and is stable for the mock's whole
// lifetime (testable property 9: object-root neutrality).
func (m *ContextualMock) Identity() uint64 {
	m.ensureInit()
	return m.identity
}

// String renders a stable, human-readable identity, mirroring the
// source specification's "ContextualMock<Iface>@<hex-hash>"/"Spy of
// <Class>@<hex>" formats.
func (m *ContextualMock) String() string {
	m.ensureInit()
	if m.spy {
		return fmt.Sprintf("Spy of %s@%x", m.typeName, m.identity)
	}
	return fmt.Sprintf("ContextualMock<%s>@%x", m.typeName, m.identity)
}

// registryHandle exposes the registry this mock dispatches through,
// for the stubbing/verification DSL (stubbing.go, verification.go)
// without re-deriving it.
func (m *ContextualMock) registryHandle() *Registry {
	m.ensureInit()
	return m.registry
}

// Arguments is the result of a dispatched call: either the values a
// matched rule produced, or an empty, unmatched result signalling the
// caller should fall back (a type-appropriate zero value for a pure
// mock, or delegation to the real implementation for a spy).
type Arguments struct {
	vals    []interface{}
	matched bool
}

// Matched reports whether a stubbing rule fired for this call. A
// hand-written spy method checks this to decide whether to delegate.
func (a Arguments) Matched() bool { return a.matched }

// Get returns the value at position i, or nil if i is out of range.
func (a Arguments) Get(i int) interface{} {
	if i < 0 || i >= len(a.vals) {
		return nil
	}
	return a.vals[i]
}

// String returns the value at position i as a string, or "" if absent
// or not a string - the method wrapper's type assertion failing
// naturally yields the spec's "type-appropriate default".
func (a Arguments) String(i int) string { v, _ := a.Get(i).(string); return v }

// Bool returns the value at position i as a bool, or false if absent.
func (a Arguments) Bool(i int) bool { v, _ := a.Get(i).(bool); return v }

// Int returns the value at position i as an int, or 0 if absent.
func (a Arguments) Int(i int) int { v, _ := a.Get(i).(int); return v }

// Int64 returns the value at position i as an int64, or 0 if absent.
func (a Arguments) Int64(i int) int64 { v, _ := a.Get(i).(int64); return v }

// Float64 returns the value at position i as a float64, or 0 if absent.
func (a Arguments) Float64(i int) float64 { v, _ := a.Get(i).(float64); return v }

// Error returns the value at position i as an error, or nil if absent.
func (a Arguments) Error(i int) error { v, _ := a.Get(i).(error); return v }

// Called is the dispatch entry point a generated mock method calls
// with its own arguments; the method name is recovered from the
// caller's frame, mirroring testify/mock's convention so hand-written
// mock methods read identically to testify-style ones.
func (m *ContextualMock) Called(args ...interface{}) Arguments {
	method := callerMethodName(2)
	return m.MethodCalled(method, args...)
}

// MethodCalled is Called with an explicit method name, for callers
// that cannot rely on runtime.Caller resolving a usable name (e.g.
// methods called through a generic wrapper).
func (m *ContextualMock) MethodCalled(method string, args ...interface{}) Arguments {
	m.ensureInit()
	gs := currentGoroutineState()
	safeArgs := copyArgs(args)
	matchers := gs.consumeMatchers() // always consumed, even mid-probe (spec.md §4.2 invariant b)

	if gs.inProbe() {
		gs.stashCapture(&callCapture{method: method, args: safeArgs, matchers: matchers})
		return Arguments{}
	}

	ctx, hasCtx := gs.getContext()
	if !hasCtx {
		if !m.spy {
			panic(ErrMissingContext)
		}
		// A spy tolerates an absent context: the call is simply not
		// recorded or matched, only delegated (spec.md §4.4).
		return Arguments{}
	}

	ctxKey := ctx.ContextKey()
	rec := newInvocationRecord(m.identity, method, safeArgs, ctx, goroutineID(), m.registry.clock.Now())
	m.registry.RecordInvocation(m.identity, ctxKey, rec)

	state, _ := m.registry.GetState(m.identity, ctxKey)
	rule := m.registry.FindStubbingRule(m.identity, ctxKey, method, safeArgs, state)
	if rule == nil {
		return Arguments{}
	}

	result := rule.apply(ctx, m.identity, method, safeArgs)
	if rule.HasNextState {
		m.registry.SetState(m.identity, ctxKey, rule.NextState)
	}
	return Arguments{vals: result, matched: true}
}

// callerMethodName resolves the short method name of the caller skip
// frames up the stack, stripping package and receiver qualifiers, e.g.
// "github.com/x/y.(*MockEmailService).Send" -> "Send".
func callerMethodName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "<unknown>"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "<unknown>"
	}
	name := fn.Name()
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// IdentityLabel formats a mock's identity token as a uuid-style label
// for diagnostics that want a longer, collision-resistant label than
// the short hex identity (e.g. cross-run correlation in logs). It does
// not affect equality or dispatch.
func IdentityLabel(identity uint64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("ctxmock-mock-%d", identity))).String()
}
