package ctxmock

import (
	"reflect"
	"regexp"
	"strings"
)

// Matcher is a predicate over a single argument position, registered
// positionally via the goroutine-local matcher buffer (spec.md §4.2).
type Matcher interface {
	// Matches reports whether v satisfies this matcher. Implementations
	// must not panic on an unexpected dynamic type; they should simply
	// return false.
	Matches(v interface{}) bool

	// String renders the matcher for verification-failure messages.
	String() string
}

// addMatcher appends m to the current goroutine's matcher buffer for
// its current context. It panics with ErrMissingContext if no context
// is set, matching spec.md §4.2's "fails with MissingContext".
func addMatcher(m Matcher) {
	gs := currentGoroutineState()
	if _, ok := gs.getContext(); !ok {
		panic(ErrMissingContext)
	}
	gs.addMatcher(m)
}

// ClearMatchers discards any matchers registered so far for the
// calling goroutine's current context, without consuming them into a
// call. Use this after registering a matcher (e.g. Any(), Eq(...)) in
// code that then decides not to dispatch the call it was building,
// so a stray matcher doesn't leak into the next, unrelated call on
// the same goroutine (spec.md §4.2's clear_current() operation).
func ClearMatchers() {
	currentGoroutineState().clearCurrentMatchers()
}

type matcherFunc struct {
	desc  string
	match func(interface{}) bool
}

func (m matcherFunc) Matches(v interface{}) bool { return m.match(v) }
func (m matcherFunc) String() string             { return m.desc }

// Any registers a matcher that accepts any value of type T (including
// the zero value) and returns T's zero value as the placeholder
// argument for the call expression.
func Any[T any]() T {
	addMatcher(matcherFunc{desc: "any()", match: func(interface{}) bool { return true }})
	var zero T
	return zero
}

// Eq registers a matcher requiring deep equality with v, and returns v
// itself so the call expression still type-checks and reads naturally.
func Eq[T any](v T) T {
	addMatcher(matcherFunc{
		desc:  "eq(...)",
		match: func(actual interface{}) bool { return reflect.DeepEqual(actual, v) },
	})
	return v
}

// IsNil registers a matcher requiring the argument to be nil (a nil
// pointer, interface, slice, map, chan, or func).
func IsNil[T any]() T {
	addMatcher(matcherFunc{desc: "isNil()", match: isNilValue})
	var zero T
	return zero
}

// NotNil registers a matcher requiring the argument to be non-nil.
func NotNil[T any]() T {
	addMatcher(matcherFunc{desc: "notNil()", match: func(v interface{}) bool { return !isNilValue(v) }})
	var zero T
	return zero
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// Contains registers a matcher requiring the string argument to
// contain substr.
func Contains(substr string) string {
	addMatcher(matcherFunc{
		desc:  "contains(" + substr + ")",
		match: func(v interface{}) bool { s, ok := v.(string); return ok && strings.Contains(s, substr) },
	})
	return substr
}

// StartsWith registers a matcher requiring the string argument to
// start with prefix.
func StartsWith(prefix string) string {
	addMatcher(matcherFunc{
		desc:  "startsWith(" + prefix + ")",
		match: func(v interface{}) bool { s, ok := v.(string); return ok && strings.HasPrefix(s, prefix) },
	})
	return prefix
}

// EndsWith registers a matcher requiring the string argument to end
// with suffix.
func EndsWith(suffix string) string {
	addMatcher(matcherFunc{
		desc:  "endsWith(" + suffix + ")",
		match: func(v interface{}) bool { s, ok := v.(string); return ok && strings.HasSuffix(s, suffix) },
	})
	return suffix
}

// Matches registers a matcher requiring the string argument to match
// the given regular expression. It panics if pattern does not compile,
// the same way a misused matcher construction fails synchronously
// elsewhere in this package.
func Matches(pattern string) string {
	re := regexp.MustCompile(pattern)
	addMatcher(matcherFunc{
		desc:  "matches(" + pattern + ")",
		match: func(v interface{}) bool { s, ok := v.(string); return ok && re.MatchString(s) },
	})
	return pattern
}

// ArgThat registers a matcher delegating to an arbitrary predicate.
func ArgThat[T any](pred func(T) bool) T {
	addMatcher(matcherFunc{
		desc: "argThat(...)",
		match: func(v interface{}) bool {
			t, ok := v.(T)
			return ok && pred(t)
		},
	})
	var zero T
	return zero
}

// IntThat registers a matcher requiring an int argument within
// [min, max] inclusive.
func IntThat(min, max int) int {
	addMatcher(matcherFunc{
		desc: "intThat(range)",
		match: func(v interface{}) bool {
			n, ok := v.(int)
			return ok && n >= min && n <= max
		},
	})
	return min
}

// Int64That registers a matcher requiring an int64 argument within
// [min, max] inclusive.
func Int64That(min, max int64) int64 {
	addMatcher(matcherFunc{
		desc: "int64That(range)",
		match: func(v interface{}) bool {
			n, ok := v.(int64)
			return ok && n >= min && n <= max
		},
	})
	return min
}

// Float64That registers a matcher requiring a float64 argument within
// [min, max] inclusive.
func Float64That(min, max float64) float64 {
	addMatcher(matcherFunc{
		desc: "float64That(range)",
		match: func(v interface{}) bool {
			n, ok := v.(float64)
			return ok && n >= min && n <= max
		},
	})
	return min
}

// AnyInt, AnyInt64, AnyFloat64, AnyString, AnyBool are typed
// convenience wrappers over Any, kept for parity with the source
// specification's named typed matchers (anyInt/anyLong/... in
// spec.md §6).
func AnyInt() int         { return Any[int]() }
func AnyInt64() int64     { return Any[int64]() }
func AnyFloat64() float64 { return Any[float64]() }
func AnyString() string   { return Any[string]() }
func AnyBool() bool       { return Any[bool]() }

// Captor accumulates the actual argument values observed at positions
// where a Capture matcher fired, in observation order.
type Captor[T any] struct {
	values []T
}

// NewCaptor creates an empty Captor.
func NewCaptor[T any]() *Captor[T] { return &Captor[T]{} }

// Value returns the most recently captured value, or T's zero value
// if nothing has been captured yet.
func (c *Captor[T]) Value() T {
	if len(c.values) == 0 {
		var zero T
		return zero
	}
	return c.values[len(c.values)-1]
}

// Values returns all captured values in observation order.
func (c *Captor[T]) Values() []T { return append([]T(nil), c.values...) }

func (c *Captor[T]) capture(v interface{}) {
	if t, ok := v.(T); ok {
		c.values = append(c.values, t)
	}
}

// Capture registers a matcher that always matches and records the
// observed argument into c as a side effect of matching.
func Capture[T any](c *Captor[T]) T {
	addMatcher(matcherFunc{
		desc: "capture(...)",
		match: func(v interface{}) bool {
			c.capture(v)
			return true
		},
	})
	var zero T
	return zero
}
