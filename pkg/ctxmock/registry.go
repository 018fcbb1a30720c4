package ctxmock

import (
	"sort"
	"sync"
	"time"

	"github.com/contextual-mocker/ctxmock/pkg/ctxlog"
)

// mockMetadata is the "toString" support data for a registered mock,
// mirroring the teacher's registry.go metadata-alongside-entries shape.
type mockMetadata struct {
	typeName string
	isSpy    bool
}

// bucket holds everything the registry tracks for one (mock, context)
// pair: stubbing rules in insertion order, the invocation log in
// append order, and the current state token, if any.
type bucket struct {
	rules       []*Rule
	invocations []*InvocationRecord
	state       interface{}
	hasState    bool
}

// Registry is the concurrent store of stubbing rules, invocation
// records, and per-context state, keyed by (mock identity, context) -
// spec.md's Mock Registry (C5). Adapted from the teacher's
// internal/services/registry.go sync.RWMutex-guarded map, generalized
// from a single map[string]Service to four logical maps keyed by an
// identity token and then by context.
type Registry struct {
	mu sync.RWMutex

	buckets  map[uint64]map[string]*bucket
	metadata map[uint64]mockMetadata

	clock Clock
}

// NewRegistry creates an empty Registry using c as its time source. A
// nil c defaults to RealClock{}.
func NewRegistry(c Clock) *Registry {
	if c == nil {
		c = RealClock{}
	}
	return &Registry{
		buckets:  make(map[uint64]map[string]*bucket),
		metadata: make(map[uint64]mockMetadata),
		clock:    c,
	}
}

// defaultRegistry is the package-level Registry every ContextualMock
// uses unless pointed at another Registry with UseRegistry.
var defaultRegistry = NewRegistry(defaultClockAdapter{})

// defaultClockAdapter forwards to the package-level defaultClock
// variable so SetDefaultClock (clock.go) affects the default registry
// without requiring callers to rebuild it.
type defaultClockAdapter struct{}

func (defaultClockAdapter) Now() time.Time { return defaultClock.Now() }

func (r *Registry) bucketFor(identity uint64, ctxKey string, create bool) *bucket {
	ctxBuckets, ok := r.buckets[identity]
	if !ok {
		if !create {
			return nil
		}
		ctxBuckets = make(map[string]*bucket)
		r.buckets[identity] = ctxBuckets
	}
	b, ok := ctxBuckets[ctxKey]
	if !ok {
		if !create {
			return nil
		}
		b = &bucket{}
		ctxBuckets[ctxKey] = b
	}
	return b
}

// registerMock records type-name and spy metadata for a newly
// initialized mock. String() and Identity() read the mock's own fields
// and never consult it (testable property 9: object-root-equivalent
// methods never touch rules/invocations/state).
func (r *Registry) registerMock(identity uint64, typeName string, isSpy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[identity] = mockMetadata{typeName: typeName, isSpy: isSpy}
}

func (r *Registry) metadataFor(identity uint64) (mockMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.metadata[identity]
	return md, ok
}

// pruneMock drops every bucket and metadata entry for identity. Called
// from the cleanup registered at mock construction time (mock.go) once
// the mock becomes unreachable - spec.md's "entry disappears" policy
// for a reclaimed mock (DESIGN.md Open Question 3).
func (r *Registry) pruneMock(identity uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, identity)
	delete(r.metadata, identity)
}

// RecordInvocation appends rec to the (mock, context) invocation log.
func (r *Registry) RecordInvocation(identity uint64, ctxKey string, rec *InvocationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucketFor(identity, ctxKey, true)
	b.invocations = append(b.invocations, rec)
}

// RemoveLastInvocation removes the most recently appended invocation
// record for (mock, context) whose GoroutineID and Method match
// goroutine/method. This is used by the stubbing/verification DSL to
// undo the probe call it made to capture a method expression
// (spec.md §4.5). Keying the removal by goroutine id + method identity,
// rather than "pop the global tail", is this implementation's resolved
// divergence from the (admittedly racy) source behavior - see
// DESIGN.md Open Question 1.
func (r *Registry) RemoveLastInvocation(identity uint64, ctxKey string, goroutine uint64, method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucketFor(identity, ctxKey, false)
	if b == nil {
		return
	}
	for i := len(b.invocations) - 1; i >= 0; i-- {
		rec := b.invocations[i]
		if rec.GoroutineID == goroutine && rec.Method == method {
			b.invocations = append(b.invocations[:i], b.invocations[i+1:]...)
			return
		}
	}
}

// AddStubbingRule appends rule to the rules list for (mock, context);
// insertion order defines "newest" for FindStubbingRule.
func (r *Registry) AddStubbingRule(identity uint64, ctxKey string, rule *Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucketFor(identity, ctxKey, true)
	b.rules = append(b.rules, rule)
	ctxlog.Debug("rule added", "mock", identity, "context", ctxKey, "method", rule.Method, "rule_count", len(b.rules))
}

// FindStubbingRule implements spec.md §4.3's selection algorithm:
// iterate rules newest-first, skip non-matching method/expired/
// state-mismatched/non-matching-args rules, return the first survivor.
// TTL is checked unconditionally (DESIGN.md Open Question 2).
func (r *Registry) FindStubbingRule(identity uint64, ctxKey, method string, args []interface{}, currentState interface{}) *Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.bucketFor(identity, ctxKey, false)
	if b == nil {
		return nil
	}
	now := r.clock.Now()
	for i := len(b.rules) - 1; i >= 0; i-- {
		rule := b.rules[i]
		if rule.Method != method {
			continue
		}
		if rule.Expired(now) {
			continue
		}
		if !rule.matchesState(currentState) {
			continue
		}
		if !rule.matchesArgs(args) {
			continue
		}
		ctxlog.Debug("rule matched", "mock", identity, "context", ctxKey, "method", method)
		return rule
	}
	ctxlog.Debug("no rule matched", "mock", identity, "context", ctxKey, "method", method)
	return nil
}

// Invocations returns a snapshot of the invocation log for (mock,
// context) in append order.
func (r *Registry) Invocations(identity uint64, ctxKey string) []*InvocationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.bucketFor(identity, ctxKey, false)
	if b == nil {
		return nil
	}
	out := make([]*InvocationRecord, len(b.invocations))
	copy(out, b.invocations)
	return out
}

// SetState sets the per-(mock,context) state token.
func (r *Registry) SetState(identity uint64, ctxKey string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucketFor(identity, ctxKey, true)
	b.state = value
	b.hasState = true
}

// GetState returns the per-(mock,context) state token, if any.
func (r *Registry) GetState(identity uint64, ctxKey string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.bucketFor(identity, ctxKey, false)
	if b == nil {
		return nil, false
	}
	return b.state, b.hasState
}

// Reset drops rules, invocations, and state for every context of
// identity.
func (r *Registry) Reset(identity uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buckets, identity)
}

// ResetContext drops rules, invocations, and state for a single
// (mock, context) pair, leaving other contexts of the same mock
// untouched.
func (r *Registry) ResetContext(identity uint64, ctxKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctxBuckets, ok := r.buckets[identity]; ok {
		delete(ctxBuckets, ctxKey)
	}
}

// contextKeysFor returns every context key that has a bucket (rules,
// invocations, or state) for identity, sorted for deterministic
// iteration.
func (r *Registry) contextKeysFor(identity uint64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctxBuckets, ok := r.buckets[identity]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(ctxBuckets))
	for k := range ctxBuckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
