package example

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/contextual-mocker/ctxmock/pkg/ctxmock"
)

// Fixture describes one declarative stub: "under context Context,
// calling Method with Args returns Returns". It is a thin, in-memory
// description the caller loads from a file; the engine itself persists
// nothing (spec.md's Non-goals exclude persistence for the core - only
// the caller's input fixture lives on disk, the same way the teacher's
// internal/context/storage.go round-trips a YAML config, here
// repurposed from a persisted CLI config to an ephemeral input file).
type Fixture struct {
	Context string        `yaml:"context"`
	Method  string        `yaml:"method"`
	Args    []interface{} `yaml:"args"`
	Returns []interface{} `yaml:"returns"`
}

// FixtureSet is the top-level document a fixture file contains.
type FixtureSet struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// LoadFixtureSet reads and parses a fixture file.
func LoadFixtureSet(path string) (*FixtureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	var set FixtureSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	return &set, nil
}

// ApplyTo stubs mock with every fixture in the set, using
// MethodCalled-shaped matching: each fixture's Args are matched by
// deep equality (no matcher placeholders - fixtures describe concrete
// call/response pairs, not predicate rules).
func (set *FixtureSet) ApplyTo(mock ctxmock.MockHandle) {
	for _, fx := range set.Fixtures {
		ctx := ctxmock.StringContext(fx.Context)
		rule := &ctxmock.Rule{
			Method:       fx.Method,
			ExpectedArgs: fx.Args,
			Action:       ctxmock.Return(fx.Returns...),
		}
		ctxmock.AddRule(mock, ctx, rule)
	}
}
