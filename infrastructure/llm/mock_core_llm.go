package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a configurable CoreLLM for tests. It records every
// request and can simulate latency and failures.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response is returned from DoRequest when Error is nil.
	Response string
	// Error, when set, is returned from every DoRequest call.
	Error error
	// Model is the model name reported by GetModel.
	Model string
	// ResponseDelay simulates provider latency before responding.
	ResponseDelay time.Duration
	// TokensIn and TokensOut are the usage figures reported on success.
	TokensIn  int
	TokensOut int

	calls   int
	prompts []string
}

var _ CoreLLM = (*MockCoreLLM)(nil)

// DoRequest returns the configured response or error after the configured
// delay, honoring context cancellation during the wait.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, _ map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return "", 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return "", 0, 0, m.Error
	}
	return m.Response, m.TokensIn, m.TokensOut, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the configured model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// Calls returns how many requests the mock has served.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of every prompt the mock has received, in order.
func (m *MockCoreLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
