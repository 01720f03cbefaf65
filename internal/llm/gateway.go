package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/aiosforge/internal/logging"
)

const (
	gatewayProvider       = "gateway"
	defaultGatewayTimeout = 120 * time.Second
	completionsPath       = "/v1/chat/completions"
)

// GatewayClient talks to an OpenAI-compatible chat completions endpoint.
// Failed requests are reported as *ProviderError and never retried.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logging.Logger
}

// GatewayOption customizes a GatewayClient.
type GatewayOption func(*GatewayClient)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *GatewayClient) { g.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *GatewayClient) {
		if d > 0 {
			g.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *logging.Logger) GatewayOption {
	return func(g *GatewayClient) { g.log = log.Sub("llm") }
}

// NewGatewayClient creates a client for the gateway at baseURL. model is
// used when a request does not name one.
func NewGatewayClient(baseURL, apiKey, model string, opts ...GatewayOption) *GatewayClient {
	g := &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultGatewayTimeout},
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GatewayClient) Name() string { return gatewayProvider }

// --- wire types ---

type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	Tools       []chatTool      `json:"tools,omitempty"`
	ToolChoice  *chatToolChoice `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage chatUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
}

func (g *GatewayClient) buildRequest(req CompletionRequest, stream bool) chatRequest {
	model := req.Model
	if model == "" {
		model = g.model
	}
	out := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if req.System != "" {
		out.Messages = append(out.Messages, chatMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  parseJSONSchema(t.InputSchema),
			},
		})
	}
	if req.ToolChoice != "" {
		tc := &chatToolChoice{Type: "function"}
		tc.Function.Name = req.ToolChoice
		out.ToolChoice = tc
	}
	return out
}

// post sends body to the completions endpoint and returns the response
// when its status is 2xx. The caller closes the body.
func (g *GatewayClient) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	if g.baseURL == "" {
		return nil, &ProviderError{Provider: gatewayProvider, Message: "gateway URL not configured"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+completionsPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	g.log.Debug().Str("model", body.Model).Bool("stream", body.Stream).Int("messages", len(body.Messages)).Msg("gateway request")
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: gatewayProvider, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider: gatewayProvider,
			Code:     resp.StatusCode,
			Message:  errorMessage(msg, resp.Status),
		}
	}
	return resp, nil
}

// errorMessage extracts error.message from an error body, falling back to
// the raw body or the status line.
func errorMessage(body []byte, status string) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}

// Complete sends a non-streaming request.
func (g *GatewayClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := g.post(ctx, g.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Provider: gatewayProvider, Code: resp.StatusCode, Message: "decoding response: " + err.Error()}
	}
	if parsed.Error != nil {
		return nil, &ProviderError{Provider: gatewayProvider, Code: resp.StatusCode, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: gatewayProvider, Code: resp.StatusCode, Message: "response has no choices"}
	}

	choice := parsed.Choices[0]
	out := &CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
		Model:      parsed.Model,
		Usage: Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		},
		Duration: time.Since(start),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: tc.Function.Arguments,
		})
	}
	return out, nil
}

// Stream sends a streaming request. Connection and status errors are
// returned directly; read errors after that arrive as an error event.
func (g *GatewayClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	start := time.Now()
	resp, err := g.post(ctx, g.buildRequest(req, true))
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		var content strings.Builder
		final := &CompletionResponse{}
		sc := newServerSentEventScanner(resp.Body)
		for sc.Scan() {
			var chunk chatChunk
			if err := json.Unmarshal([]byte(sc.Data()), &chunk); err != nil {
				g.log.Debug().Err(err).Msg("skipping malformed stream chunk")
				continue
			}
			if chunk.Model != "" {
				final.Model = chunk.Model
			}
			if chunk.Usage != nil {
				final.Usage = Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.FinishReason != "" {
				final.StopReason = choice.FinishReason
			}
			if choice.Delta.Content == "" {
				continue
			}
			content.WriteString(choice.Delta.Content)
			select {
			case ch <- StreamEvent{Type: EventDelta, Content: choice.Delta.Content}:
			case <-ctx.Done():
				select {
				case ch <- StreamEvent{Type: EventError, Error: ctx.Err().Error()}:
				default:
				}
				return
			}
		}
		if err := sc.Err(); err != nil {
			ch <- StreamEvent{Type: EventError, Error: err.Error()}
			return
		}

		final.Content = content.String()
		final.Duration = time.Since(start)
		ch <- StreamEvent{Type: EventDone, Response: final}
	}()
	return ch, nil
}
