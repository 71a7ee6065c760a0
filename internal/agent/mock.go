package agent

import "context"

// MockClient is a test double for the agent Client interface.
type MockClient struct {
	Response string
	Err      error
	Calls    []string // records prompts sent
}

// Generate records the call and returns the mock response.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	return m.Response, m.Err
}
