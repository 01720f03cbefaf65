// Package assistant provides the wizard chat helper and the compliance
// reviewer, both backed by an LLM gateway.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/aiosforge/internal/llm"
	"github.com/soyeahso/aiosforge/internal/logging"
)

var (
	// ErrUnavailable wraps every failure to reach or understand the gateway.
	ErrUnavailable = errors.New("assistant unavailable")
	ErrNoMessages  = errors.New("no messages to send")
	ErrNoFiles     = errors.New("no files to review")
)

// Config tunes requests sent by the assistant.
type Config struct {
	Model string
	// ReviewModel is used for compliance reviews. Empty means Model.
	ReviewModel string
	MaxTokens   int
}

func (c Config) reviewModel() string {
	if c.ReviewModel != "" {
		return c.ReviewModel
	}
	return c.Model
}

// Assistant answers wizard chat messages and reviews generated files.
type Assistant struct {
	cfg    Config
	client llm.Client
	log    *logging.Logger
}

// New creates an assistant using client.
func New(cfg Config, client llm.Client, log *logging.Logger) *Assistant {
	if log == nil {
		log = logging.Nop()
	}
	return &Assistant{cfg: cfg, client: client, log: log.Sub("assistant")}
}

// Reply is the outcome of a chat turn.
type Reply struct {
	Content string    `json:"content"`
	Model   string    `json:"model,omitempty"`
	Usage   llm.Usage `json:"usage"`
}

func (a *Assistant) chatRequest(messages []llm.Message, st WizardState) (llm.CompletionRequest, error) {
	var history []llm.Message
	for _, m := range messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		history = append(history, m)
	}
	if len(history) == 0 {
		return llm.CompletionRequest{}, ErrNoMessages
	}
	return llm.CompletionRequest{
		Model:     a.cfg.Model,
		System:    BuildSystemPrompt(st),
		Messages:  history,
		MaxTokens: a.cfg.MaxTokens,
	}, nil
}

// Chat sends the conversation with a system prompt describing st and
// returns the reply.
func (a *Assistant) Chat(ctx context.Context, messages []llm.Message, st WizardState) (*Reply, error) {
	req, err := a.chatRequest(messages, st)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		a.log.Error().Err(err).Str("step", string(st.Step)).Msg("chat failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	a.log.Debug().Int("in", resp.Usage.InputTokens).Int("out", resp.Usage.OutputTokens).Msg("chat reply")
	return &Reply{Content: resp.Content, Model: resp.Model, Usage: resp.Usage}, nil
}

// ChatStream is like Chat but passes each text delta to onDelta as it
// arrives.
func (a *Assistant) ChatStream(ctx context.Context, messages []llm.Message, st WizardState, onDelta func(string)) (*Reply, error) {
	req, err := a.chatRequest(messages, st)
	if err != nil {
		return nil, err
	}
	events, err := a.client.Stream(ctx, req)
	if err != nil {
		a.log.Error().Err(err).Str("step", string(st.Step)).Msg("chat stream failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := llm.Collect(events, onDelta)
	if err != nil {
		a.log.Error().Err(err).Msg("chat stream interrupted")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Reply{Content: resp.Content, Model: resp.Model, Usage: resp.Usage}, nil
}
