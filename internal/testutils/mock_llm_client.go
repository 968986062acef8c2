// Package testutils provides deterministic test doubles for the evaluation
// engine: a scripted language-model program and a pattern-matching LLM
// client.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quillml/quill/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.LLMClient = (*MockLLMClient)(nil)

// MockLLMClient implements the LLMClient interface with deterministic
// responses for consistent testing and development workflows.
// Responses are selected by substring matching against the prompt.
type MockLLMClient struct {
	mu sync.Mutex
	// model is the mock model identifier.
	model string
	// responses maps prompt substrings to canned responses. The empty
	// pattern is the fallback for unmatched prompts.
	responses map[string]string
	// patterns preserves registration order so matching is deterministic.
	patterns []string
	// calls counts Complete invocations.
	calls int
}

// NewMockLLMClient creates a mock client with a fallback response and no
// patterns registered.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{
		model:     model,
		responses: map[string]string{"": "mock response"},
	}
}

// AddResponse registers a canned response returned for prompts containing
// pattern. An empty pattern replaces the fallback response.
func (m *MockLLMClient) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.responses[pattern]; !exists && pattern != "" {
		m.patterns = append(m.patterns, pattern)
	}
	m.responses[pattern] = response
}

// Complete returns the first registered response whose pattern is a
// substring of the prompt, falling back to the default response.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, _ map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	for _, pattern := range m.patterns {
		if strings.Contains(prompt, pattern) {
			return m.responses[pattern], nil
		}
	}
	return m.responses[""], nil
}

// EstimateTokens approximates GPT-style tokenization at four characters
// per token, with a one-token minimum for non-empty text.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls reports how many times Complete was invoked.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
