package ctxmock

import (
	"fmt"
	"time"
)

// InvocationRecord is an immutable log entry describing one observed
// call, used by the verification engine. Two records are never equal
// structurally; identity is the record itself (spec.md §3).
type InvocationRecord struct {
	MockIdentity uint64
	Method       string
	Args         []interface{}
	Context      ContextID
	Timestamp    time.Time
	GoroutineID  uint64

	verified bool
}

// Verified reports whether this record has been matched by a
// successful verification.
func (r *InvocationRecord) Verified() bool { return r.verified }

// String renders the record for verification-failure summaries.
func (r *InvocationRecord) String() string {
	ctxName := "<none>"
	if r.Context != nil {
		ctxName = r.Context.ContextKey()
	}
	return fmt.Sprintf("%s(%v) context=%s at=%s", r.Method, r.Args, ctxName, r.Timestamp.Format(time.RFC3339Nano))
}

// newInvocationRecord makes a defensive shallow copy of args so later
// mutation by the caller's own code cannot corrupt the registry.
func newInvocationRecord(identity uint64, method string, args []interface{}, ctx ContextID, goroutine uint64, now time.Time) *InvocationRecord {
	return &InvocationRecord{
		MockIdentity: identity,
		Method:       method,
		Args:         copyArgs(args),
		Context:      ctx,
		Timestamp:    now,
		GoroutineID:  goroutine,
	}
}

func copyArgs(args []interface{}) []interface{} {
	if args == nil {
		return nil
	}
	out := make([]interface{}, len(args))
	copy(out, args)
	return out
}
