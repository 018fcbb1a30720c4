package ctxmock

import (
	"testing"
	"time"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(nil)
	if r == nil {
		t.Fatal("expected NewRegistry to return a non-nil registry")
	}
	if r.clock == nil {
		t.Error("expected a nil clock to default to RealClock")
	}
}

func TestRegistry_RecordAndListInvocations(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))

	rec := newInvocationRecord(1, "Send", []interface{}{"a@example.com"}, StringContext("tenant-a"), 7, r.clock.Now())
	r.RecordInvocation(1, "str:tenant-a", rec)

	got := r.Invocations(1, "str:tenant-a")
	if len(got) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(got))
	}
	if got[0].Method != "Send" {
		t.Errorf("expected method Send, got %s", got[0].Method)
	}

	other := r.Invocations(1, "str:tenant-b")
	if len(other) != 0 {
		t.Errorf("expected tenant-b bucket to be empty, got %d", len(other))
	}
}

func TestRegistry_RemoveLastInvocation(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))
	rec1 := newInvocationRecord(1, "Send", []interface{}{"a"}, StringContext("t"), 7, r.clock.Now())
	rec2 := newInvocationRecord(1, "Send", []interface{}{"b"}, StringContext("t"), 7, r.clock.Now())
	r.RecordInvocation(1, "str:t", rec1)
	r.RecordInvocation(1, "str:t", rec2)

	r.RemoveLastInvocation(1, "str:t", 7, "Send")

	got := r.Invocations(1, "str:t")
	if len(got) != 1 {
		t.Fatalf("expected 1 invocation after removal, got %d", len(got))
	}
	if got[0] != rec1 {
		t.Error("expected the remaining invocation to be the first recorded, not the last")
	}
}

func TestRegistry_FindStubbingRule_NewestWins(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))

	older := &Rule{Method: "Get", ExpectedArgs: []interface{}{"id"}, Action: Return("old"), CreatedAt: r.clock.Now()}
	newer := &Rule{Method: "Get", ExpectedArgs: []interface{}{"id"}, Action: Return("new"), CreatedAt: r.clock.Now()}
	r.AddStubbingRule(1, "str:t", older)
	r.AddStubbingRule(1, "str:t", newer)

	found := r.FindStubbingRule(1, "str:t", "Get", []interface{}{"id"}, nil)
	if found == nil {
		t.Fatal("expected a matching rule")
	}
	if found.Action.values[0] != "new" {
		t.Errorf("expected the newest rule to win, got %v", found.Action.values[0])
	}
}

func TestRegistry_FindStubbingRule_TTLExpiry(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	r := NewRegistry(clock)

	rule := &Rule{Method: "Get", ExpectedArgs: []interface{}{"id"}, Action: Return("v"), CreatedAt: clock.Now(), TTL: time.Minute}
	r.AddStubbingRule(1, "str:t", rule)

	if r.FindStubbingRule(1, "str:t", "Get", []interface{}{"id"}, nil) == nil {
		t.Error("expected the rule to match before TTL elapses")
	}

	clock.Advance(2 * time.Minute)

	if r.FindStubbingRule(1, "str:t", "Get", []interface{}{"id"}, nil) != nil {
		t.Error("expected the rule to have expired")
	}
}

func TestRegistry_StateGateAndTransition(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))

	rule := &Rule{
		Method:           "Pop",
		ExpectedArgs:     nil,
		HasRequiredState: true,
		RequiredState:    "queued",
		HasNextState:     true,
		NextState:        "popped",
		Action:           Return("first"),
		CreatedAt:        r.clock.Now(),
	}
	r.AddStubbingRule(1, "str:t", rule)

	if r.FindStubbingRule(1, "str:t", "Pop", nil, nil) != nil {
		t.Error("expected no match when the required state is absent")
	}

	r.SetState(1, "str:t", "queued")
	found := r.FindStubbingRule(1, "str:t", "Pop", nil, "queued")
	if found == nil {
		t.Fatal("expected a match once the required state is set")
	}

	r.SetState(1, "str:t", found.NextState)
	state, ok := r.GetState(1, "str:t")
	if !ok || state != "popped" {
		t.Errorf("expected state to transition to popped, got %v (ok=%v)", state, ok)
	}
}

func TestRegistry_ResetAndResetContext(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))
	r.AddStubbingRule(1, "str:a", &Rule{Method: "Get", Action: Return("a"), CreatedAt: r.clock.Now()})
	r.AddStubbingRule(1, "str:b", &Rule{Method: "Get", Action: Return("b"), CreatedAt: r.clock.Now()})

	r.ResetContext(1, "str:a")
	if r.FindStubbingRule(1, "str:a", "Get", nil, nil) != nil {
		t.Error("expected context a's rules to be gone")
	}
	if r.FindStubbingRule(1, "str:b", "Get", nil, nil) == nil {
		t.Error("expected context b's rules to survive ResetContext(a)")
	}

	r.Reset(1)
	if r.FindStubbingRule(1, "str:b", "Get", nil, nil) != nil {
		t.Error("expected Reset to drop every context")
	}
}

func TestRegistry_PruneMock(t *testing.T) {
	r := NewRegistry(NewMockClock(time.Unix(0, 0)))
	r.registerMock(1, "Thing", false)
	r.AddStubbingRule(1, "str:t", &Rule{Method: "Get", Action: Return("v"), CreatedAt: r.clock.Now()})

	r.pruneMock(1)

	if _, ok := r.metadataFor(1); ok {
		t.Error("expected metadata to be pruned")
	}
	if r.FindStubbingRule(1, "str:t", "Get", nil, nil) != nil {
		t.Error("expected rules to be pruned")
	}
}
