package testutils

import (
	"context"
	"sync"

	"github.com/quillml/quill/internal/domain"
	"github.com/quillml/quill/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.LMP = (*ScriptedLMP)(nil)

// ScriptedLMP is a deterministic language-model program for tests. Each
// invocation is answered by a user-supplied function, and the mock records
// every call so tests can assert on invocation order, concurrency, and the
// parameters the engine passed through.
// It is safe for concurrent invocation.
type ScriptedLMP struct {
	name string
	fn   ports.InvokeFunc

	mu    sync.Mutex
	calls []RecordedCall
}

// RecordedCall captures the arguments of one Invoke call.
type RecordedCall struct {
	Input  domain.Input
	Params domain.APIParams
}

// NewScriptedLMP creates a scripted program whose outputs come from fn.
func NewScriptedLMP(name string, fn ports.InvokeFunc) *ScriptedLMP {
	return &ScriptedLMP{name: name, fn: fn}
}

// EchoLMP returns a program that echoes its first positional argument or,
// for named inputs, the value of the given field.
func EchoLMP(name, field string) *ScriptedLMP {
	return NewScriptedLMP(name, func(_ context.Context, input domain.Input, _ domain.APIParams) (any, error) {
		switch input.Kind() {
		case domain.KindNamed:
			v, _ := input.Field(field)
			return v, nil
		default:
			args := input.Args()
			if len(args) == 0 {
				return nil, nil
			}
			return args[0], nil
		}
	})
}

// Name returns the program's identifier.
func (s *ScriptedLMP) Name() string { return s.name }

// Invoke records the call and delegates to the scripted function.
func (s *ScriptedLMP) Invoke(ctx context.Context, input domain.Input, params domain.APIParams) (any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, RecordedCall{Input: input, Params: params.Clone()})
	s.mu.Unlock()

	return s.fn(ctx, input, params)
}

// Calls returns a copy of every recorded call in invocation order.
func (s *ScriptedLMP) Calls() []RecordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RecordedCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount reports how many times Invoke was called.
func (s *ScriptedLMP) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
