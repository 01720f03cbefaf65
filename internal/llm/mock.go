package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for Client. It records every request it
// receives.
type MockClient struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	StreamFunc   func(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)

	mu       sync.Mutex
	requests []CompletionRequest
}

func (m *MockClient) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Requests returns the requests received so far.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.requests...)
}

func (m *MockClient) record(req CompletionRequest) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.record(req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &CompletionResponse{Content: "mock response"}, nil
}

func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	m.record(req)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	return StaticStream("mock ", "stream response"), nil
}

// StaticStream returns a closed channel holding one delta per chunk and a
// done event with the joined content.
func StaticStream(chunks ...string) <-chan StreamEvent {
	ch := make(chan StreamEvent, len(chunks)+1)
	content := ""
	for _, c := range chunks {
		ch <- StreamEvent{Type: EventDelta, Content: c}
		content += c
	}
	ch <- StreamEvent{Type: EventDone, Response: &CompletionResponse{Content: content}}
	close(ch)
	return ch
}
