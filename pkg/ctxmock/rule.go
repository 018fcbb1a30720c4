package ctxmock

import (
	"reflect"
	"time"
)

type actionKind int

const (
	actionReturn actionKind = iota
	actionPanic
	actionAnswer
)

// AnswerFunc computes a rule's return values and may panic to
// propagate a failure verbatim to the code under test, mirroring
// spec.md §3's Answer(f) where f may throw.
type AnswerFunc func(ctx ContextID, mockIdentity uint64, method string, args []interface{}) []interface{}

// Action is exactly one of Return, Panic (this engine's Go analogue
// of spec.md's Throw), or Answer.
type Action struct {
	kind       actionKind
	values     []interface{}
	panicValue interface{}
	answer     AnswerFunc
}

// Return builds an Action that returns vals verbatim.
func Return(vals ...interface{}) Action {
	return Action{kind: actionReturn, values: vals}
}

// Panic builds an Action that panics with v, this engine's analogue of
// spec.md's Throw(exception) - Go has no checked exceptions, so a
// stubbed failure is modeled as a panic the caller may recover.
func Panic(v interface{}) Action {
	return Action{kind: actionPanic, panicValue: v}
}

// Answer builds an Action that computes its result via f, evaluated
// against the pre-transition state (spec.md testable property 5).
func Answer(f AnswerFunc) Action {
	return Action{kind: actionAnswer, answer: f}
}

// Rule is an immutable stubbing rule: a predicate over (method, args,
// state) plus an action, state transition, and expiry (spec.md §3,
// C4).
type Rule struct {
	Method string

	// Matchers holds one matcher per positional argument, possibly
	// shorter than the method's arity; a missing position falls back
	// to deep-equality against ExpectedArgs. A nil/empty Matchers means
	// "whole-argument-array equality on ExpectedArgs".
	Matchers     []Matcher
	ExpectedArgs []interface{}

	RequiredState interface{}
	HasRequiredState bool
	NextState        interface{}
	HasNextState     bool

	Action Action

	CreatedAt time.Time
	TTL       time.Duration // <= 0 never expires
}

// Expired reports whether this rule has passed its TTL as of now.
func (r *Rule) Expired(now time.Time) bool {
	if r.TTL <= 0 {
		return false
	}
	return now.After(r.CreatedAt.Add(r.TTL))
}

// matchesState reports whether the rule's state precondition, if any,
// is satisfied by currentState (spec.md testable property 4).
func (r *Rule) matchesState(currentState interface{}) bool {
	if !r.HasRequiredState {
		return true
	}
	return reflect.DeepEqual(r.RequiredState, currentState)
}

// matchesArgs evaluates the argument predicate described in spec.md
// §4.3 step 5.
func (r *Rule) matchesArgs(args []interface{}) bool {
	if len(r.Matchers) == 0 {
		return reflect.DeepEqual(r.ExpectedArgs, args)
	}
	if len(args) != len(r.ExpectedArgs) {
		return false
	}
	for i, arg := range args {
		if i < len(r.Matchers) && r.Matchers[i] != nil {
			if !r.Matchers[i].Matches(arg) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(r.ExpectedArgs[i], arg) {
			return false
		}
	}
	return true
}

// apply runs the rule's action. A panic from Action kind Panic or from
// an AnswerFunc propagates verbatim to the caller, leaving any state
// transition un-applied (the dispatcher only applies NextState after
// apply returns normally - spec.md testable property 5).
func (r *Rule) apply(ctx ContextID, mockIdentity uint64, method string, args []interface{}) []interface{} {
	switch r.Action.kind {
	case actionReturn:
		return r.Action.values
	case actionPanic:
		panic(r.Action.panicValue)
	case actionAnswer:
		return r.Action.answer(ctx, mockIdentity, method, args)
	default:
		return nil
	}
}
