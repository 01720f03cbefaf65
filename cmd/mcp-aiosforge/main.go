// Command mcp-aiosforge is an MCP stdio server that lets an LLM agent browse
// the native agent catalog and validate, generate and diagram project models.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soyeahso/aiosforge/internal/catalog"
	"github.com/soyeahso/aiosforge/internal/diagram"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/logging"
	"github.com/soyeahso/aiosforge/internal/version"
)

// MCP Protocol Types
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     string   `json:"default,omitempty"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

type Capabilities struct {
	Tools map[string]any `json:"tools"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

const mcpProtocolVersion = "2024-11-05"

var modelProperty = Property{
	Type:        "object",
	Description: "Project model: {project:{name,pattern,...}, agents:[...], squads:[...], workflows:[...]}. A JSON string is accepted too.",
}

func main() {
	level := os.Getenv("AIOSFORGE_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	// stdout carries the protocol, so logs go to stderr.
	log := logging.New(os.Stderr, level).Sub("mcp")

	server := &MCPServer{out: os.Stdout, log: log}
	log.Info().Str("version", version.Version).Msg("MCP aiosforge server starting")
	if err := server.Run(os.Stdin); err != nil {
		log.Error().Err(err).Msg("reading stdin")
		os.Exit(1)
	}
}

type MCPServer struct {
	out io.Writer
	log *logging.Logger
}

// Run handles newline-delimited JSON-RPC requests from r until EOF.
func (s *MCPServer) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Models can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handleRequest(line)
	}
	s.log.Info().Msg("server shutting down")
	return scanner.Err()
}

func (s *MCPServer) handleRequest(line string) {
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.log.Warn().Err(err).Msg("parse error")
		s.sendError(nil, -32700, "Parse error", err.Error())
		return
	}

	s.log.Debug().Str("method", req.Method).Msg("handling request")

	switch req.Method {
	case "initialize":
		s.sendResponse(req.ID, InitializeResult{
			ProtocolVersion: mcpProtocolVersion,
			Capabilities:    Capabilities{Tools: map[string]any{}},
			ServerInfo:      ServerInfo{Name: "aiosforge", Version: version.Version},
		})
	case "tools/list":
		s.sendResponse(req.ID, ListToolsResult{Tools: tools()})
	case "tools/call":
		s.handleCallTool(req)
	case "notifications/initialized":
		return
	default:
		s.sendError(req.ID, -32601, "Method not found", fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func tools() []Tool {
	return []Tool{
		{
			Name:        "list_native_agents",
			Description: "List the built-in agents (slug, name, role, commands, tools) that can be added to a project.",
			InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}, Required: []string{}},
		},
		{
			Name:        "list_patterns",
			Description: "List the orchestration patterns a project can use.",
			InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}, Required: []string{}},
		},
		{
			Name:        "validate_model",
			Description: "Check a project model for duplicate slugs, unknown agent references and other problems.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{"model": modelProperty},
				Required:   []string{"model"},
			},
		},
		{
			Name:        "generate_files",
			Description: "Generate the AIOS scaffold for a model. Without path, returns the file manifest; with path, returns that file's content.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"model": modelProperty,
					"path": {
						Type:        "string",
						Description: "Path of a single generated file to return, e.g. aios.config.yaml",
					},
				},
				Required: []string{"model"},
			},
		},
		{
			Name:        "render_diagram",
			Description: "Render the agent graph of a model as ASCII art or as JSON nodes and edges.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"model": modelProperty,
					"format": {
						Type:        "string",
						Description: "Output format",
						Enum:        []string{"ascii", "json"},
						Default:     "ascii",
					},
				},
				Required: []string{"model"},
			},
		},
	}
}

func (s *MCPServer) handleCallTool(req JSONRPCRequest) {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	s.log.Info().Str("tool", params.Name).Msg("calling tool")

	switch params.Name {
	case "list_native_agents":
		s.sendJSON(req.ID, map[string]any{"agents": catalog.Native()})
	case "list_patterns":
		s.listPatterns(req.ID)
	case "validate_model":
		s.validateModel(req.ID, params.Arguments)
	case "generate_files":
		s.generateFiles(req.ID, params.Arguments)
	case "render_diagram":
		s.renderDiagram(req.ID, params.Arguments)
	default:
		s.sendError(req.ID, -32602, "Unknown tool", fmt.Sprintf("Tool not found: %s", params.Name))
	}
}

func (s *MCPServer) listPatterns(id any) {
	var b strings.Builder
	for _, p := range domain.Patterns() {
		fmt.Fprintf(&b, "%s (%s): %s\n", p, p.Title(), p.Describe())
	}
	s.sendText(id, b.String())
}

func (s *MCPServer) validateModel(id any, args map[string]any) {
	m, err := modelArg(args)
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	issues := domain.Validate(m)
	if len(issues) == 0 {
		s.sendText(id, "Model is valid.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Model has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	s.sendText(id, b.String())
}

func (s *MCPServer) generateFiles(id any, args map[string]any) {
	m, err := modelArg(args)
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	if issues := domain.Validate(m); len(issues) > 0 {
		s.sendToolError(id, fmt.Sprintf("model is invalid: %s", issues[0]))
		return
	}

	files := generator.Generate(m, nil)
	path := getString(args, "path")
	if path == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "%d files:\n", len(files))
		for _, f := range files {
			fmt.Fprintf(&b, "%s (%s)\n", f.Path, f.Type)
		}
		s.sendText(id, b.String())
		return
	}
	for _, f := range files {
		if f.Path == path {
			s.sendText(id, f.Content)
			return
		}
	}
	s.sendToolError(id, fmt.Sprintf("no generated file at %q", path))
}

func (s *MCPServer) renderDiagram(id any, args map[string]any) {
	m, err := modelArg(args)
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	switch format := getString(args, "format"); format {
	case "", "ascii":
		s.sendText(id, diagram.RenderASCII(m))
	case "json":
		s.sendJSON(id, diagram.Build(m))
	default:
		s.sendToolError(id, fmt.Sprintf("unknown format %q (ascii, json)", format))
	}
}

// modelArg decodes the "model" argument, given either as an object or as a
// JSON string.
func modelArg(args map[string]any) (domain.Model, error) {
	var m domain.Model
	raw, ok := args["model"]
	if !ok || raw == nil {
		return m, fmt.Errorf("model is required")
	}
	var data []byte
	if str, isString := raw.(string); isString {
		data = []byte(str)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return m, fmt.Errorf("encoding model: %w", err)
		}
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("invalid model: %w", err)
	}
	return m, nil
}

func getString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func (s *MCPServer) sendText(id any, text string) {
	s.sendResponse(id, ToolResult{Content: []ContentItem{{Type: "text", Text: text}}})
}

func (s *MCPServer) sendJSON(id any, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	s.sendText(id, string(data))
}

func (s *MCPServer) sendToolError(id any, message string) {
	s.log.Warn().Str("error", message).Msg("tool error")
	s.sendResponse(id, ToolResult{
		Content: []ContentItem{{Type: "text", Text: message}},
		IsError: true,
	})
}

func (s *MCPServer) sendResponse(id any, result any) {
	s.write(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *MCPServer) sendError(id any, code int, message string, data any) {
	s.write(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

func (s *MCPServer) write(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error().Err(err).Msg("marshaling response")
		return
	}
	fmt.Fprintln(s.out, string(data))
}
