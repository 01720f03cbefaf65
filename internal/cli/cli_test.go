package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModelYAML = `project:
  name: Support Desk
  description: Answers customer tickets
  pattern: sequential_pipeline
agents:
  - slug: triage
    name: Triage
    role: Classifier
  - slug: writer
    name: Writer
    role: Responder
squads:
  - slug: desk
    name: Desk
    agentIds: [triage, writer]
`

// isolate points the CLI at a fresh home directory and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("AIOSFORGE_HOME", home)
	for _, key := range []string{
		"AIOSFORGE_PORT", "AIOSFORGE_BIND", "AIOSFORGE_TOKEN", "AIOSFORGE_GATEWAY_URL",
		"AIOSFORGE_GATEWAY_KEY", "AIOSFORGE_MODEL", "AIOSFORGE_DB", "AIOSFORGE_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// --- file helpers ---

func TestDecodeFile(t *testing.T) {
	yamlPath := writeTemp(t, "model.yaml", sampleModelYAML)
	var fromYAML domain.Model
	require.NoError(t, decodeFile(yamlPath, &fromYAML))
	assert.Equal(t, "Support Desk", fromYAML.Project.Name)
	assert.Equal(t, []string{"triage", "writer"}, fromYAML.Squads[0].AgentIDs)

	data, err := json.Marshal(fromYAML)
	require.NoError(t, err)
	jsonPath := writeTemp(t, "model.JSON", string(data))
	var fromJSON domain.Model
	require.NoError(t, decodeFile(jsonPath, &fromJSON))
	assert.Equal(t, fromYAML, fromJSON)
}

func TestDecodeFileErrors(t *testing.T) {
	var m domain.Model
	err := decodeFile(writeTemp(t, "model.toml", "x = 1"), &m)
	assert.ErrorContains(t, err, "unsupported file type")

	err = decodeFile(writeTemp(t, "model.json", "{broken"), &m)
	assert.ErrorContains(t, err, "parsing")

	err = decodeFile(filepath.Join(t.TempDir(), "missing.yaml"), &m)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadModelRequiresPath(t *testing.T) {
	_, err := readModel("")
	assert.EqualError(t, err, "--model is required")
}

func TestReadCompliance(t *testing.T) {
	none, err := readCompliance("")
	require.NoError(t, err)
	assert.Nil(t, none)

	wrapped := writeTemp(t, "review.json", `{"results":[{"path":"README.md","status":"passed"}]}`)
	got, err := readCompliance(wrapped)
	require.NoError(t, err)
	assert.Equal(t, domain.CompliancePassed, got["README.md"].Status)

	bare := writeTemp(t, "review.yaml", "- path: Dockerfile\n  status: failed\n  notes: runs as root\n")
	got, err = readCompliance(bare)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplianceFailed, got["Dockerfile"].Status)
	assert.Equal(t, "runs as root", got["Dockerfile"].Notes)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"8080", 8080},
		{"0.5", 0.5},
		{"007", 7.0},
		{"gpt-4o", "gpt-4o"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), "input %q", tt.in)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "AIOSFORGE_CLI_TEST_VAR"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeTemp(t, ".env", key+"=from-file\n")
	require.NoError(t, loadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Existing variables win.
	t.Setenv(key, "from-env")
	require.NoError(t, loadEnvFiles(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}

// --- commands ---

func TestVersionCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "aiosforge dev")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
}

func TestCatalogCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "analyst")
	assert.Contains(t, out, "task_first")

	out, err = execute(t, "catalog", "--json")
	require.NoError(t, err)
	var body map[string][]domain.Agent
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.NotEmpty(t, body["agents"])
}

func TestValidateCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "validate", "--model", writeTemp(t, "m.yaml", sampleModelYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "Model is valid")

	bad := sampleModelYAML + "  - slug: ghosts\n    name: Ghosts\n    agentIds: [nobody]\n"
	_, err = execute(t, "validate", "--model", writeTemp(t, "bad.yaml", bad))
	assert.ErrorContains(t, err, "validation issue")

	_, err = execute(t, "validate")
	assert.EqualError(t, err, "--model is required")
}

func TestGenerateCmdManifest(t *testing.T) {
	isolate(t)
	out, err := execute(t, "generate", "--model", writeTemp(t, "m.yaml", sampleModelYAML))
	require.NoError(t, err)
	assert.Contains(t, out, "aios.config.yaml")
	assert.Contains(t, out, "agents/triage.yaml")
	assert.Contains(t, out, "pending")
}

func TestGenerateCmdOutDir(t *testing.T) {
	isolate(t)
	dir := filepath.Join(t.TempDir(), "scaffold")
	out, err := execute(t, "generate", "--model", writeTemp(t, "m.yaml", sampleModelYAML), "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	data, err := os.ReadFile(filepath.Join(dir, "agents", "writer.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "writer")

	info, err := os.Stat(filepath.Join(dir, "scripts", "setup.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)
}

func TestGenerateCmdZip(t *testing.T) {
	isolate(t)
	zipPath := filepath.Join(t.TempDir(), "out.zip")
	_, err := execute(t, "generate", "--model", writeTemp(t, "m.yaml", sampleModelYAML), "--zip", zipPath)
	require.NoError(t, err)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	require.NotEmpty(t, zr.File)
	for _, f := range zr.File {
		assert.True(t, strings.HasPrefix(f.Name, "support-desk/"), f.Name)
	}
}

func TestGenerateCmdFlagConflict(t *testing.T) {
	isolate(t)
	_, err := execute(t, "generate", "--model", writeTemp(t, "m.yaml", sampleModelYAML),
		"--out", t.TempDir(), "--zip", filepath.Join(t.TempDir(), "x.zip"))
	assert.ErrorContains(t, err, "not both")
}

func TestGenerateCmdCompliance(t *testing.T) {
	isolate(t)
	review := writeTemp(t, "review.json", `{"results":[{"path":"README.md","status":"warning","notes":"thin"}]}`)
	out, err := execute(t, "generate", "--model", writeTemp(t, "m.yaml", sampleModelYAML), "--compliance", review)
	require.NoError(t, err)
	assert.Regexp(t, `markdown\s+warning\s+README\.md`, out)
}

func TestDiagramCmd(t *testing.T) {
	isolate(t)
	model := writeTemp(t, "m.yaml", sampleModelYAML)

	out, err := execute(t, "diagram", "--model", model)
	require.NoError(t, err)
	assert.Contains(t, out, "triage")

	out, err = execute(t, "diagram", "--model", model, "--format", "json")
	require.NoError(t, err)
	var g struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.NotEmpty(t, g.Nodes)

	_, err = execute(t, "diagram", "--model", model, "--format", "svg")
	assert.ErrorContains(t, err, "unknown format")
}

func TestProjectLifecycle(t *testing.T) {
	isolate(t)
	model := writeTemp(t, "m.yaml", sampleModelYAML)

	out, err := execute(t, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved projects")

	out, err = execute(t, "project", "save", "--model", model)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = execute(t, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Support Desk")

	out, err = execute(t, "project", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Support Desk")
	assert.Contains(t, out, "slug: triage")

	dir := filepath.Join(t.TempDir(), "export")
	_, err = execute(t, "project", "export", id, "--out", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "aios.config.yaml"))

	_, err = execute(t, "project", "export", id)
	assert.ErrorContains(t, err, "--out or --zip")

	out, err = execute(t, "project", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, err = execute(t, "project", "show", id)
	assert.ErrorContains(t, err, "not found")
	_, err = execute(t, "project", "delete", id)
	assert.ErrorContains(t, err, "not found")
}

func TestConfigCmd(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), strings.TrimSpace(out))

	out, err = execute(t, "config", "set", "server.port", "9000")
	require.NoError(t, err)
	assert.Contains(t, out, "Set server.port = 9000")

	out, err = execute(t, "config", "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "9000", strings.TrimSpace(out))

	out, err = execute(t, "config", "get", "server")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9000")

	_, err = execute(t, "config", "unset", "server.port")
	require.NoError(t, err)
	_, err = execute(t, "config", "get", "server.port")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, "config", "set", "bogus.key", "1")
	assert.ErrorContains(t, err, "unknown config section")
}

func TestConfigSetRefusesInvalidConfig(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "config.yaml")

	_, err := execute(t, "config", "set", "server.port", "70000")
	assert.ErrorContains(t, err, "server.port: port must be 0-65535")
	assert.NoFileExists(t, cfgPath)

	_, err = execute(t, "config", "set", "server.port", "high")
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = execute(t, "config", "set", "server.bind", "lan")
	assert.ErrorContains(t, err, "server.auth.token")

	_, err = execute(t, "config", "set", "assistant.baseUrl", "ftp://gw")
	assert.ErrorContains(t, err, "assistant.baseUrl")
	assert.NoFileExists(t, cfgPath)

	_, err = execute(t, "config", "set", "server.auth.token", "s3cret")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "server.bind", "lan")
	require.NoError(t, err)

	_, err = execute(t, "config", "unset", "server.auth.token")
	assert.ErrorContains(t, err, "server.auth.token")
	out, err := execute(t, "config", "get", "server.auth.token")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", strings.TrimSpace(out))
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	isolate(t)

	_, err := execute(t, "config", "set", "server.auth.token", "s3cret")
	require.NoError(t, err)

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "model: gpt-4o-mini")
}

func TestStatusCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not found (using defaults)")
	assert.Contains(t, out, "port=18790 bind=loopback auth=none")
	assert.Contains(t, out, "Assistant: (not configured)")
	assert.Contains(t, out, "not created yet")
}

func TestInvalidConfigRejected(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("server:\n  port: 99999\n"), 0o600))

	_, err := execute(t, "project", "list")
	assert.ErrorContains(t, err, "config validation failed")
}

func TestReviewAndChatRequireGateway(t *testing.T) {
	isolate(t)
	_, err := execute(t, "review", "--model", writeTemp(t, "m.yaml", sampleModelYAML))
	assert.ErrorContains(t, err, "no assistant gateway configured")

	_, err = execute(t, "chat", "hello")
	assert.ErrorContains(t, err, "no assistant gateway configured")
}

func TestChatUnknownStep(t *testing.T) {
	isolate(t)
	_, err := execute(t, "chat", "--step", "launch", "hello")
	assert.ErrorContains(t, err, `unknown step "launch"`)
}

// fakeGateway answers completions with a review tool call and streams
// chat replies.
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if stream, _ := body["stream"].(bool); stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range []string{
				`{"model":"fake-1","choices":[{"delta":{"content":"Start with "}}]}`,
				`{"choices":[{"delta":{"content":"a triage agent."},"finish_reason":"stop"}]}`,
				`[DONE]`,
			} {
				fmt.Fprintf(w, "data: %s\n\n", chunk)
			}
			return
		}
		args := `{\"results\":[{\"path\":\"README.md\",\"status\":\"passed\",\"notes\":\"ok\"},{\"path\":\"nope.md\",\"status\":\"passed\"}]}`
		fmt.Fprintf(w, `{"model":"fake-1","choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"c1","type":"function","function":{"name":"submit_compliance_review","arguments":"%s"}}]},"finish_reason":"tool_calls"}]}`, args)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReviewCmd(t *testing.T) {
	isolate(t)
	t.Setenv("AIOSFORGE_GATEWAY_URL", fakeGateway(t).URL)
	model := writeTemp(t, "m.yaml", sampleModelYAML)

	out, err := execute(t, "review", "--model", model)
	require.NoError(t, err)
	assert.Contains(t, out, "passed   README.md")
	assert.NotContains(t, out, "nope.md")

	out, err = execute(t, "review", "--model", model, "--json")
	require.NoError(t, err)
	reviewFile := writeTemp(t, "review.json", out)

	out, err = execute(t, "generate", "--model", model, "--compliance", reviewFile)
	require.NoError(t, err)
	assert.Regexp(t, `markdown\s+passed\s+README\.md`, out)
}

func TestChatCmd(t *testing.T) {
	isolate(t)
	t.Setenv("AIOSFORGE_GATEWAY_URL", fakeGateway(t).URL)

	out, err := execute(t, "chat", "--step", "agents", "--model", writeTemp(t, "m.yaml", sampleModelYAML), "which", "agents?")
	require.NoError(t, err)
	assert.Equal(t, "Start with a triage agent.\n", out)
}
