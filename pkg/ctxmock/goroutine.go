package ctxmock

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the id of the calling goroutine from its stack
// trace header ("goroutine 123 [running]: ..."). Go has no public API
// for goroutine-local storage, so this is the standard workaround used
// by goroutine-aware logging and tracing libraries to key per-goroutine
// state; it is only ever used to partition the three pieces of state
// spec.md requires to be strictly per-thread (current context, matcher
// buffer, stubbing-in-progress/last-call-capture flags).
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

// callCapture is the "last call" slot a probe call stashes into during
// stubbing/verification (spec.md §4.4, §4.5).
type callCapture struct {
	method   string
	args     []interface{}
	matchers []Matcher
}

// goroutineState is the per-goroutine mini state machine described in
// spec.md §9 ("Idle -> Recording -> Captured -> Idle"): current
// context, matcher buffer (itself keyed by context so interleaved
// contexts on one goroutine stay isolated), and the stubbing/
// verification probe flags.
type goroutineState struct {
	mu sync.Mutex

	hasContext bool
	context    ContextID

	matchers map[string][]Matcher // keyed by ContextID.ContextKey(), "" bucket for "no context"

	stubbingInProgress     bool
	verificationInProgress bool
	lastCapture            *callCapture
}

var goroutineStates sync.Map // uint64 -> *goroutineState

func currentGoroutineState() *goroutineState {
	id := goroutineID()
	if v, ok := goroutineStates.Load(id); ok {
		return v.(*goroutineState)
	}
	gs := &goroutineState{matchers: make(map[string][]Matcher)}
	actual, _ := goroutineStates.LoadOrStore(id, gs)
	return actual.(*goroutineState)
}

func (gs *goroutineState) setContext(ctx ContextID) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if ctx == nil {
		gs.hasContext = false
		gs.context = nil
		return
	}
	gs.hasContext = true
	gs.context = ctx
}

func (gs *goroutineState) clearContext() {
	gs.setContext(nil)
}

func (gs *goroutineState) getContext() (ContextID, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.context, gs.hasContext
}

func (gs *goroutineState) addMatcher(m Matcher) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	key := gs.bucketKeyLocked()
	gs.matchers[key] = append(gs.matchers[key], m)
}

// bucketKeyLocked must be called with gs.mu held.
func (gs *goroutineState) bucketKeyLocked() string {
	if !gs.hasContext || gs.context == nil {
		return ""
	}
	return gs.context.ContextKey()
}

// consumeMatchers atomically reads and clears the matcher list for the
// goroutine's current context bucket. It is the only way user code or
// the dispatcher observes matchers, and it always runs exactly once
// per intercepted call (spec.md §4.2 invariant a).
func (gs *goroutineState) consumeMatchers() []Matcher {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	key := gs.bucketKeyLocked()
	m := gs.matchers[key]
	delete(gs.matchers, key)
	return m
}

func (gs *goroutineState) clearCurrentMatchers() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	delete(gs.matchers, gs.bucketKeyLocked())
}

func (gs *goroutineState) beginStubbing() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.stubbingInProgress = true
	gs.lastCapture = nil
}

func (gs *goroutineState) beginVerification() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.verificationInProgress = true
	gs.lastCapture = nil
}

func (gs *goroutineState) endProbe() *callCapture {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.stubbingInProgress = false
	gs.verificationInProgress = false
	captured := gs.lastCapture
	gs.lastCapture = nil
	return captured
}

func (gs *goroutineState) inProbe() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.stubbingInProgress || gs.verificationInProgress
}

func (gs *goroutineState) stashCapture(c *callCapture) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.lastCapture = c
}
