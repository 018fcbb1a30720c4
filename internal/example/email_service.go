// Package example demonstrates ctxmock end to end: a small interface,
// a generated-shape mock and spy, and a declarative fixture loader.
// It is the consumption-shape reference the rest of the test suite
// exercises the engine through.
package example

import "github.com/contextual-mocker/ctxmock/pkg/ctxmock"

// EmailService is the interface under test throughout this package,
// matching spec.md's S7 scenario.
type EmailService interface {
	Send(addr string) bool
	Pop() string
	Get(id string) string
}

// MockEmailService is a pure mock: every method routes through
// ContextualMock.Called and falls back to a zero value when no rule
// matches.
type MockEmailService struct {
	ctxmock.ContextualMock
}

// NewMockEmailService constructs a MockEmailService with a friendly
// type name for String().
func NewMockEmailService() *MockEmailService {
	m := &MockEmailService{}
	m.Named("EmailService")
	return m
}

func (m *MockEmailService) Send(addr string) bool {
	return m.Called(addr).Bool(0)
}

func (m *MockEmailService) Pop() string {
	return m.Called().String(0)
}

func (m *MockEmailService) Get(id string) string {
	return m.Called(id).String(0)
}

// realEmailService is the "real" collaborator a SpyEmailService
// delegates to when no rule matches.
type realEmailService struct {
	sent []string
}

func (r *realEmailService) Send(addr string) bool {
	r.sent = append(r.sent, addr)
	return true
}

func (r *realEmailService) Pop() string { return "" }

func (r *realEmailService) Get(id string) string { return "real:" + id }

// NewRealEmailService returns a bare, non-mocked EmailService, for
// constructing a SpyEmailService around.
func NewRealEmailService() EmailService { return &realEmailService{} }

// SpyEmailService delegates to Real whenever no stubbing rule matches
// (spec.md's Spy, testable property 10).
type SpyEmailService struct {
	ctxmock.ContextualMock
	Real EmailService
}

// NewSpyEmailService wraps real as a spy.
func NewSpyEmailService(real EmailService) *SpyEmailService {
	s := &SpyEmailService{Real: real}
	s.Named("EmailService")
	s.Spy()
	return s
}

func (s *SpyEmailService) Send(addr string) bool {
	ret := s.Called(addr)
	if ret.Matched() {
		return ret.Bool(0)
	}
	return s.Real.Send(addr)
}

func (s *SpyEmailService) Pop() string {
	ret := s.Called()
	if ret.Matched() {
		return ret.String(0)
	}
	return s.Real.Pop()
}

func (s *SpyEmailService) Get(id string) string {
	ret := s.Called(id)
	if ret.Matched() {
		return ret.String(0)
	}
	return s.Real.Get(id)
}
