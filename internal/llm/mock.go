package llm

import (
	"context"
	"sync"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// MockCompleter is an in-memory Completer for testing. It replays Fragments
// and then fails with StreamErr, if set. StartErr makes Stream itself fail.
type MockCompleter struct {
	Fragments []string
	StreamErr error
	StartErr  error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Stream invocation.
type MockCall struct {
	Model string
	Turns []models.Turn
}

// NewMockCompleter creates a MockCompleter replaying fragments.
func NewMockCompleter(fragments ...string) *MockCompleter {
	return &MockCompleter{Fragments: fragments}
}

// Stream implements Completer.
func (m *MockCompleter) Stream(ctx context.Context, model string, turns []models.Turn) (Stream, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Model: model, Turns: append([]models.Turn(nil), turns...)})
	m.mu.Unlock()

	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return &mockStream{ctx: ctx, frags: m.Fragments, err: m.StreamErr}, nil
}

// Calls returns the recorded Stream invocations.
func (m *MockCompleter) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

type mockStream struct {
	ctx    context.Context
	frags  []string
	next   int
	cur    string
	err    error
	failed error
	closed bool
}

func (s *mockStream) Next() bool {
	if s.closed || s.failed != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.failed = err
		return false
	}
	for s.next < len(s.frags) {
		f := s.frags[s.next]
		s.next++
		if f != "" {
			s.cur = f
			return true
		}
	}
	if s.err != nil {
		s.failed = s.err
	}
	return false
}

func (s *mockStream) Current() string { return s.cur }

func (s *mockStream) Err() error { return s.failed }

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
