package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock tests ---

func TestMockClientComplete(t *testing.T) {
	mock := &MockClient{
		ProviderName: "test",
		CompleteFunc: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{
				Content: "Hello from mock!",
				Usage:   Usage{InputTokens: 10, OutputTokens: 5},
			}, nil
		},
	}

	resp, err := mock.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from mock!", resp.Content)
	assert.Equal(t, 10, resp.Usage.InputTokens)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Hi", reqs[0].Messages[0].Content)
}

func TestMockClientStream(t *testing.T) {
	mock := &MockClient{}
	assert.Equal(t, "mock", mock.Name())

	ch, err := mock.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	var deltas []string
	resp, err := Collect(ch, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"mock ", "stream response"}, deltas)
	assert.Equal(t, "mock stream response", resp.Content)
}

func TestMockClientDefaultComplete(t *testing.T) {
	mock := &MockClient{}
	resp, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
}

// --- Collect tests ---

func TestCollectError(t *testing.T) {
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: EventDelta, Content: "partial"}
	ch <- StreamEvent{Type: EventError, Error: "connection reset"}
	close(ch)

	_, err := Collect(ch, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCollectWithoutDone(t *testing.T) {
	ch := make(chan StreamEvent)
	close(ch)
	_, err := Collect(ch, nil)
	assert.Error(t, err)
}

// --- Gateway tests ---

func gatewayServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(data, &body))
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGatewayComplete(t *testing.T) {
	var got map[string]any
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		got = body
		fmt.Fprint(w, `{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":7,"completion_tokens":2}}`)
	})

	c := NewGatewayClient(srv.URL+"/", "sk-test", "gpt-4o-mini")
	resp, err := c.Complete(context.Background(), CompletionRequest{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 2}, resp.Usage)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "be brief", msgs[0].(map[string]any)["content"])
	assert.NotContains(t, got, "tools")
	assert.NotContains(t, got, "stream")
}

func TestGatewayForcedToolCall(t *testing.T) {
	var got map[string]any
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		got = body
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"submit","arguments":"{\"ok\":true}"}}]},"finish_reason":"tool_calls"}]}`)
	})

	c := NewGatewayClient(srv.URL, "sk-test", "m")
	resp, err := c.Complete(context.Background(), CompletionRequest{
		Model:    "override",
		Messages: []Message{{Role: RoleUser, Content: "review"}},
		Tools: []ToolDefinition{{
			Name:        "submit",
			Description: "submit results",
			InputSchema: `{"type":"object","properties":{"ok":{"type":"boolean"}}}`,
		}},
		ToolChoice: "submit",
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "submit", Input: `{"ok":true}`}, resp.ToolCalls[0])

	assert.Equal(t, "override", got["model"])
	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "submit", fn["name"])
	assert.Equal(t, "object", fn["parameters"].(map[string]any)["type"])
	choice := got["tool_choice"].(map[string]any)
	assert.Equal(t, "function", choice["type"])
	assert.Equal(t, "submit", choice["function"].(map[string]any)["name"])
}

func TestGatewayStatusError(t *testing.T) {
	calls := 0
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	})

	c := NewGatewayClient(srv.URL, "sk-test", "m")
	_, err := c.Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 429, pe.Code)
	assert.Equal(t, "rate limited", pe.Message)
	assert.Equal(t, 1, calls, "failed requests are not retried")
}

func TestGatewayNoChoices(t *testing.T) {
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	_, err := NewGatewayClient(srv.URL, "sk-test", "m").Complete(context.Background(), CompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGatewayNotConfigured(t *testing.T) {
	_, err := NewGatewayClient("", "", "m").Complete(context.Background(), CompletionRequest{})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "not configured")
}

func TestGatewayStream(t *testing.T) {
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, true, body["stream"])
		w.Header().Set("Content-Type", "text/event-stream")
		lines := []string{
			`: keep-alive`,
			`data: {"model":"m1","choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			``,
			`data: not json`,
			`data: {"choices":[{"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		}
		fmt.Fprint(w, strings.Join(lines, "\n")+"\n")
	})

	c := NewGatewayClient(srv.URL, "sk-test", "m")
	ch, err := c.Stream(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)

	var deltas []string
	resp, err := Collect(ch, func(s string) { deltas = append(deltas, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, "m1", resp.Model)
	assert.Equal(t, "stop", resp.StopReason)
}

func TestGatewayStreamStatusError(t *testing.T) {
	srv := gatewayServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "bad key")
	})
	_, err := NewGatewayClient(srv.URL, "sk-test", "m").Stream(context.Background(), CompletionRequest{})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 401, pe.Code)
	assert.Equal(t, "bad key", pe.Message)
}

// --- Misc ---

func TestParseJSONSchema(t *testing.T) {
	assert.Nil(t, parseJSONSchema(""))
	assert.Nil(t, parseJSONSchema("{nope"))
	assert.Equal(t, "object", parseJSONSchema(`{"type":"object"}`)["type"])
}

func TestCompletionRequestJSON(t *testing.T) {
	req := CompletionRequest{
		Model:      "m",
		Messages:   []Message{{Role: RoleUser, Content: "Hello"}},
		ToolChoice: "submit",
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"toolChoice":"submit"`)
	assert.NotContains(t, string(data), "maxTokens")
}

func TestProviderErrorFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      ProviderError
		expected string
	}{
		{
			name:     "with code",
			err:      ProviderError{Provider: "gateway", Message: "rate limited", Code: 429},
			expected: "gateway: 429 rate limited",
		},
		{
			name:     "without code",
			err:      ProviderError{Provider: "gateway", Message: "connection refused"},
			expected: "gateway: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
