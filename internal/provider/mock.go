package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider is a scripted provider for tests. Responses are either played
// back in order or matched by a substring of the user prompt.
type MockProvider struct {
	mu        sync.Mutex
	scripted  []string
	byMatch   map[string]string
	err       error
	callCount int
	requests  []string
}

// NewMockProvider creates a mock that returns the given responses in order.
// Once the script is exhausted it keeps returning the last response.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{scripted: responses, byMatch: map[string]string{}}
}

// RespondWhen registers a response returned when the user prompt contains
// substr. Match responses take priority over the ordered script.
func (m *MockProvider) RespondWhen(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byMatch[substr] = response
	return m
}

// FailWith makes every completion return err.
func (m *MockProvider) FailWith(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete implements Provider.Complete.
func (m *MockProvider) Complete(_ context.Context, _, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, userPrompt)
	if m.err != nil {
		return "", m.err
	}
	for substr, resp := range m.byMatch {
		if strings.Contains(userPrompt, substr) {
			return resp, nil
		}
	}
	if len(m.scripted) == 0 {
		return "", fmt.Errorf("mock provider has no scripted responses")
	}
	idx := m.callCount
	if idx >= len(m.scripted) {
		idx = len(m.scripted) - 1
	}
	m.callCount++
	return m.scripted[idx], nil
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the recorded user prompts.
func (m *MockProvider) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.requests))
	copy(out, m.requests)
	return out
}

// Name implements Provider.Name.
func (m *MockProvider) Name() string { return "mock" }

// Model implements Provider.Model.
func (m *MockProvider) Model() string { return "mock-model" }
