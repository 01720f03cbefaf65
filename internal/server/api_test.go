package server

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/diagram"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/llm"
	"github.com/soyeahso/aiosforge/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, resp *http.Response) *zip.Reader {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return zr
}

// --- auth on /api ---

func TestAPIRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, testToken, nil)

	resp := do(t, ts, http.MethodGet, "/api/catalog", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, resp).Code)

	resp = do(t, ts, http.MethodGet, "/api/catalog", testToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// --- stateless endpoints ---

func TestCatalogEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodGet, "/api/catalog", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Agents []domain.Agent `json:"agents"`
	}](t, resp)
	assert.NotEmpty(t, body.Agents)
	for _, a := range body.Agents {
		assert.NotEmpty(t, a.Slug)
	}
}

func TestPatternsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodGet, "/api/patterns", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patterns := decode[[]PatternInfo](t, resp)
	require.Len(t, patterns, len(domain.Patterns()))
	assert.Equal(t, domain.PatternSequentialPipeline, patterns[0].ID)
	for _, p := range patterns {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Description)
	}
}

func TestValidateEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/validate", "", sampleModel())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ok := decode[ValidateResponse](t, resp)
	assert.True(t, ok.Valid)
	assert.NotNil(t, ok.Issues)
	assert.Empty(t, ok.Issues)

	bad := sampleModel()
	bad.Agents = append(bad.Agents, domain.Agent{Slug: "Not Kebab", Name: "x"})
	resp = do(t, ts, http.MethodPost, "/api/validate", "", bad)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	invalid := decode[ValidateResponse](t, resp)
	assert.False(t, invalid.Valid)
	require.NotEmpty(t, invalid.Issues)
	assert.Equal(t, "agents[2].slug", invalid.Issues[0].Path)
}

func TestValidateEndpointBadBody(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/validate", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_body", decode[ErrorResponse](t, resp).Code)
}

func TestDiagramEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/diagram", "", sampleModel())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decode[diagram.Graph](t, resp)
	assert.Equal(t, diagram.Build(sampleModel()), g)

	resp = do(t, ts, http.MethodPost, "/api/diagram?format=ascii", "", sampleModel())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, diagram.RenderASCII(sampleModel()), string(text))

	resp = do(t, ts, http.MethodPost, "/api/diagram?format=svg", "", sampleModel())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/generate", "", GenerateRequest{
		Model:      sampleModel(),
		Compliance: []domain.ComplianceResult{{Path: "README.md", Status: domain.CompliancePassed, Notes: "fine"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[FilesResponse](t, resp)

	assert.Len(t, body.Files, len(generator.Manifest(sampleModel())))
	byPath := map[string]domain.GeneratedFile{}
	for _, f := range body.Files {
		byPath[f.Path] = f
	}
	assert.Equal(t, domain.CompliancePassed, byPath["README.md"].ComplianceStatus)
	assert.Equal(t, "fine", byPath["README.md"].ComplianceNotes)
	assert.Equal(t, domain.CompliancePending, byPath["CLAUDE.md"].ComplianceStatus)
	assert.Contains(t, byPath, "agents/triage.yaml")
}

func TestExportEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/export", "", GenerateRequest{Model: sampleModel()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="support-desk.zip"`, resp.Header.Get("Content-Disposition"))

	zr := readZip(t, resp)
	assert.Len(t, zr.File, len(generator.Manifest(sampleModel())))
	assert.Equal(t, "support-desk/aios.config.yaml", zr.File[0].Name)
}

func TestExportEndpointUnnamedProject(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	m := sampleModel()
	m.Project.Name = ""
	resp := do(t, ts, http.MethodPost, "/api/export", "", GenerateRequest{Model: m})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="aios-project.zip"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "aios-project/aios.config.yaml", readZip(t, resp).File[0].Name)
}

func TestExportEndpointConfiguredRoot(t *testing.T) {
	srv, ts := newTestServer(t, "", nil)
	srv.cfg.Generator.ArchiveRoot = "scaffold"

	resp := do(t, ts, http.MethodPost, "/api/export", "", GenerateRequest{Model: sampleModel()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	zr := readZip(t, resp)
	assert.True(t, strings.HasPrefix(zr.File[0].Name, "scaffold/"))
}

func TestExportEndpointUnsafeRoot(t *testing.T) {
	srv, ts := newTestServer(t, "", nil)
	srv.cfg.Generator.ArchiveRoot = "../escape"

	resp := do(t, ts, http.MethodPost, "/api/export", "", GenerateRequest{Model: sampleModel()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsafe_path", decode[ErrorResponse](t, resp).Code)
}

// --- projects ---

func TestProjectLifecycle(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[map[string][]map[string]any](t, resp)
	assert.NotNil(t, empty["projects"])
	assert.Empty(t, empty["projects"])

	resp = do(t, ts, http.MethodPost, "/api/projects", "", sampleModel())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[map[string]string](t, resp)["id"]
	require.NotEmpty(t, id)

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[domain.Model](t, resp)
	assert.Equal(t, id, loaded.Project.ID)
	assert.Equal(t, "Support Desk", loaded.Project.Name)
	assert.Len(t, loaded.Agents, 2)

	resp = do(t, ts, http.MethodGet, "/api/projects", "", nil)
	list := decode[map[string][]map[string]any](t, resp)
	require.Len(t, list["projects"], 1)
	assert.Equal(t, id, list["projects"][0]["id"])

	resp = do(t, ts, http.MethodDelete, "/api/projects/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, resp).Code)
}

func TestProjectNotFound(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/projects/missing"},
		{http.MethodDelete, "/api/projects/missing"},
		{http.MethodPost, "/api/projects/missing/files"},
		{http.MethodGet, "/api/projects/missing/files"},
		{http.MethodGet, "/api/projects/missing/export"},
	} {
		resp := do(t, ts, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestProjectFiles(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/projects", "", sampleModel())
	id := decode[map[string]string](t, resp)["id"]

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id+"/files", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[FilesResponse](t, resp).Files)

	resp = do(t, ts, http.MethodPost, "/api/projects/"+id+"/files", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	generated := decode[FilesResponse](t, resp).Files
	assert.Len(t, generated, len(generator.Manifest(sampleModel())))

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id+"/files", "", nil)
	stored := decode[FilesResponse](t, resp).Files
	assert.Equal(t, generated, stored)

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id+"/export", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, readZip(t, resp).File, len(stored))
}

func TestProjectFilesRejectsInvalidModel(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	m := sampleModel()
	m.Workflows = []domain.Workflow{{Name: "Release"}, {Name: "release!"}}
	resp := do(t, ts, http.MethodPost, "/api/projects", "", m)
	id := decode[map[string]string](t, resp)["id"]

	resp = do(t, ts, http.MethodPost, "/api/projects/"+id+"/files", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "invalid_model", body.Code)
	assert.Contains(t, body.Error, "workflows[1].slug")

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id+"/files", "", nil)
	assert.Empty(t, decode[FilesResponse](t, resp).Files)
}

// --- sessions ---

func TestSessionFlow(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decode[SessionResponse](t, resp)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, wizard.StepDiscovery, sess.State.Current)
	require.Len(t, sess.Progress, len(wizard.Steps()))
	assert.Equal(t, wizard.StatusCurrent, sess.Progress[0].Status)
	base := "/api/sessions/" + sess.ID

	resp = do(t, ts, http.MethodPost, base+"/next", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wizard.StepProject, decode[SessionResponse](t, resp).State.Current)

	// No project name yet.
	resp = do(t, ts, http.MethodPost, base+"/next", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "blocked", decode[ErrorResponse](t, resp).Code)

	resp = do(t, ts, http.MethodPut, base+"/model", "", sampleModel())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Support Desk", decode[SessionResponse](t, resp).Model.Project.Name)

	resp = do(t, ts, http.MethodPost, base+"/next", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wizard.StepAgents, decode[SessionResponse](t, resp).State.Current)

	resp = do(t, ts, http.MethodPost, base+"/back", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	back := decode[SessionResponse](t, resp)
	assert.Equal(t, wizard.StepProject, back.State.Current)
	assert.Equal(t, wizard.StepAgents, back.State.Furthest)

	resp = do(t, ts, http.MethodPost, base+"/goto", "", gotoRequest{Step: wizard.StepSquads})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wizard.StepSquads, decode[SessionResponse](t, resp).State.Current)

	resp = do(t, ts, http.MethodPost, base+"/goto", "", gotoRequest{Step: wizard.StepGeneration})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, base+"/goto", "", gotoRequest{Step: "launch"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_step", decode[ErrorResponse](t, resp).Code)

	// Refused moves leave the stored state alone.
	resp = do(t, ts, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wizard.StepSquads, decode[SessionResponse](t, resp).State.Current)
}

func TestSessionCreateSeedsModel(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodPost, "/api/sessions", "", createSessionRequest{Model: sampleModel()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[SessionResponse](t, resp).Model.Agents, 2)
}

func TestSessionNotFound(t *testing.T) {
	_, ts := newTestServer(t, "", nil)

	resp := do(t, ts, http.MethodGet, "/api/sessions/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/api/sessions/missing/next", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- chat ---

func TestChatEndpoint(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "Try a watchdog pattern.", Model: "mock-model"}, nil
		},
	}
	_, ts := newTestServer(t, "", mock)

	resp := do(t, ts, http.MethodPost, "/api/chat", "", chatRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "which pattern?"}},
		WizardState: assistant.WizardState{Step: wizard.StepProject, Model: sampleModel()},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decode[assistant.Reply](t, resp)
	assert.Equal(t, "Try a watchdog pattern.", reply.Content)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].System, "Current step: project")
}

func TestChatEndpointErrors(t *testing.T) {
	failing := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, &llm.ProviderError{Provider: "gateway", Code: 401, Message: "invalid api key sk-123"}
		},
	}

	t.Run("no assistant", func(t *testing.T) {
		_, ts := newTestServer(t, "", nil)
		resp := do(t, ts, http.MethodPost, "/api/chat", "", chatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("no messages", func(t *testing.T) {
		_, ts := newTestServer(t, "", failing)
		resp := do(t, ts, http.MethodPost, "/api/chat", "", chatRequest{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("upstream failure is generic", func(t *testing.T) {
		_, ts := newTestServer(t, "", failing)
		resp := do(t, ts, http.MethodPost, "/api/chat", "", chatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		body := decode[ErrorResponse](t, resp)
		assert.Equal(t, "assistant_unavailable", body.Code)
		assert.Equal(t, unavailableMessage, body.Error)
	})
}

// --- compliance ---

func reviewMock(input string) *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{ToolCalls: []llm.ToolCall{{ID: "1", Name: assistant.ReviewTool, Input: input}}}, nil
		},
	}
}

func TestComplianceEndpointFiles(t *testing.T) {
	mock := reviewMock(`{"results":[{"path":"README.md","status":"failed","notes":"missing setup"},{"path":"other.md","status":"passed"}]}`)
	_, ts := newTestServer(t, "", mock)

	files := []domain.GeneratedFile{{Path: "README.md", Content: "# hi", Type: domain.FileMarkdown}}
	resp := do(t, ts, http.MethodPost, "/api/compliance", "", ComplianceRequest{Files: files})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[ComplianceResponse](t, resp)
	assert.Equal(t, []domain.ComplianceResult{{Path: "README.md", Status: domain.ComplianceFailed, Notes: "missing setup"}}, body.Results)
	assert.Zero(t, body.Updated)
}

func TestComplianceEndpointProject(t *testing.T) {
	mock := reviewMock(`{"results":[{"path":"README.md","status":"passed"},{"path":"agents/triage.yaml","status":"warning","notes":"no model"}]}`)
	_, ts := newTestServer(t, "", mock)

	resp := do(t, ts, http.MethodPost, "/api/projects", "", sampleModel())
	id := decode[map[string]string](t, resp)["id"]

	// Nothing stored yet.
	resp = do(t, ts, http.MethodPost, "/api/compliance", "", ComplianceRequest{ProjectID: id})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	do(t, ts, http.MethodPost, "/api/projects/"+id+"/files", "", nil)

	resp = do(t, ts, http.MethodPost, "/api/compliance", "", ComplianceRequest{ProjectID: id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[ComplianceResponse](t, resp)
	assert.Len(t, body.Results, 2)
	assert.Equal(t, 2, body.Updated)

	resp = do(t, ts, http.MethodGet, "/api/projects/"+id+"/files", "", nil)
	stored := decode[FilesResponse](t, resp).Files
	byPath := map[string]domain.GeneratedFile{}
	for _, f := range stored {
		byPath[f.Path] = f
	}
	assert.Equal(t, domain.CompliancePassed, byPath["README.md"].ComplianceStatus)
	assert.Equal(t, domain.ComplianceWarning, byPath["agents/triage.yaml"].ComplianceStatus)
	assert.Equal(t, "no model", byPath["agents/triage.yaml"].ComplianceNotes)
	assert.Equal(t, domain.CompliancePending, byPath["CLAUDE.md"].ComplianceStatus)
}

func TestComplianceEndpointUnknownProject(t *testing.T) {
	_, ts := newTestServer(t, "", reviewMock(`{"results":[]}`))

	resp := do(t, ts, http.MethodPost, "/api/compliance", "", ComplianceRequest{ProjectID: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
