// Package ctxmock implements a context-aware mocking engine.
//
// Unlike a conventional mocking library whose stubbings are global to a
// mock object, ctxmock partitions every interaction by a caller-supplied
// context identifier, so the same mock can return different answers,
// obey different verification expectations, and walk different state
// machines concurrently for different contexts (tenants, sessions,
// users, ...).
//
// # Shape
//
// A mocked type embeds ContextualMock as its first field and routes
// every method through Called, the same shape stretchr/testify's
// mock.Mock uses, since Go has no dynamic proxy facility:
//
//	type MockEmailService struct{ ctxmock.ContextualMock }
//
//	func (m *MockEmailService) Send(addr string) bool {
//	    return m.Called(addr).Bool(0)
//	}
//
// The current context is set per goroutine with SetContext or the
// scoped WithContext helper, then stubbed and verified with Given and
// Verify:
//
//	ctxmock.SetContext(ctxmock.StringContext("tenant-a"))
//	ctxmock.Given(mock).When(func() { mock.Send("a@b") }).ThenReturn(true)
//	mock.Send("a@b") // true, under tenant-a only
//
// See the package-level functions Given, Verify, WithContext, and the
// matcher constructors (Any, Eq, ArgThat, ...) for the full surface.
package ctxmock
