package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/llm"
)

// ReviewTool is the tool the reviewer is forced to call.
const ReviewTool = "submit_compliance_review"

const reviewSchema = `{
  "type": "object",
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "path": {"type": "string"},
          "status": {"type": "string", "enum": ["passed", "warning", "failed"]},
          "notes": {"type": "string"}
        },
        "required": ["path", "status"]
      }
    }
  },
  "required": ["results"]
}`

const reviewPrompt = `You review generated AIOS project files for compliance with the AIOS conventions:
agent files declare a slug, role and model; squads only reference existing agents;
configuration and docs agree on names; no secrets are committed.
Judge each file and call ` + ReviewTool + ` with one result per file.
Use "passed" when the file is fine, "warning" for minor issues and "failed" for problems that break the project.`

// ReviewItem is a file as sent to the reviewer.
type ReviewItem struct {
	Path    string          `json:"path"`
	Content string          `json:"content"`
	Type    domain.FileType `json:"type"`
}

type reviewPayload struct {
	Results []domain.ComplianceResult `json:"results"`
}

// Review asks the gateway to judge files. Only verdicts for paths that were
// sent are returned; entries with other statuses are dropped.
func (a *Assistant) Review(ctx context.Context, files []domain.GeneratedFile) ([]domain.ComplianceResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	items := make([]ReviewItem, len(files))
	sent := make(map[string]bool, len(files))
	for i, f := range files {
		items[i] = ReviewItem{Path: f.Path, Content: f.Content, Type: f.Type}
		sent[f.Path] = true
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding files: %w", err)
	}

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Model:     a.cfg.reviewModel(),
		System:    reviewPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: string(body)}},
		MaxTokens: a.cfg.MaxTokens,
		Tools: []llm.ToolDefinition{{
			Name:        ReviewTool,
			Description: "Submit a compliance verdict for each reviewed file.",
			InputSchema: reviewSchema,
		}},
		ToolChoice: ReviewTool,
	})
	if err != nil {
		a.log.Error().Err(err).Int("files", len(files)).Msg("compliance review failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	payload, err := reviewArguments(resp)
	if err != nil {
		a.log.Error().Err(err).Msg("unreadable compliance review")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	results := []domain.ComplianceResult{}
	dropped := 0
	for _, r := range payload.Results {
		if !r.Status.Verdict() || !sent[r.Path] {
			dropped++
			continue
		}
		results = append(results, r)
	}
	a.log.Info().Int("files", len(files)).Int("results", len(results)).Int("dropped", dropped).Msg("compliance review complete")
	return results, nil
}

// reviewArguments finds the review tool call in resp. Gateways that answer
// with plain JSON content instead of a tool call are accepted too.
func reviewArguments(resp *llm.CompletionResponse) (reviewPayload, error) {
	var payload reviewPayload
	for _, tc := range resp.ToolCalls {
		if tc.Name != ReviewTool {
			continue
		}
		if err := json.Unmarshal([]byte(tc.Input), &payload); err != nil {
			return payload, fmt.Errorf("decoding %s arguments: %w", ReviewTool, err)
		}
		return payload, nil
	}
	content := strings.TrimSpace(resp.Content)
	if content != "" && json.Unmarshal([]byte(content), &payload) == nil && payload.Results != nil {
		return payload, nil
	}
	return payload, fmt.Errorf("response did not call %s", ReviewTool)
}

// ResultsMap converts review results into the path-keyed overlay used by
// the generator. Later entries for the same path win.
func ResultsMap(results []domain.ComplianceResult) map[string]domain.ComplianceResult {
	return generator.ResultsByPath(results)
}
