package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/export"
	"github.com/soyeahso/aiosforge/internal/generator"
	"github.com/soyeahso/aiosforge/internal/llm"
	"github.com/soyeahso/aiosforge/internal/store"
	"gopkg.in/yaml.v3"
)

// decodeFile unmarshals a YAML (.yaml, .yml) or JSON (.json) file into v.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".json":
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("%s: unsupported file type, use .yaml, .yml or .json", path)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func readModel(path string) (domain.Model, error) {
	var m domain.Model
	if path == "" {
		return m, fmt.Errorf("--model is required")
	}
	err := decodeFile(path, &m)
	return m, err
}

// readCompliance reads reviewer verdicts, either a bare list or
// {"results": [...]} as printed by the review command.
func readCompliance(path string) (map[string]domain.ComplianceResult, error) {
	if path == "" {
		return nil, nil
	}
	var wrapped struct {
		Results []domain.ComplianceResult `json:"results" yaml:"results"`
	}
	if err := decodeFile(path, &wrapped); err == nil && wrapped.Results != nil {
		return generator.ResultsByPath(wrapped.Results), nil
	}
	var list []domain.ComplianceResult
	if err := decodeFile(path, &list); err != nil {
		return nil, err
	}
	return generator.ResultsByPath(list), nil
}

// writeFiles writes files to a directory or a ZIP archive.
func writeFiles(w io.Writer, cfg config.Config, projectName, outDir, zipPath string, files []domain.GeneratedFile) error {
	switch {
	case outDir != "" && zipPath != "":
		return fmt.Errorf("use either --out or --zip, not both")
	case outDir != "":
		if err := export.WriteDir(outDir, files); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %d files to %s\n", len(files), outDir)
	case zipPath != "":
		root := cfg.Generator.ArchiveRoot
		if root == "" {
			root = export.Folder(projectName)
		}
		f, err := os.Create(zipPath)
		if err != nil {
			return err
		}
		if err := export.WriteZip(f, root, files); err != nil {
			f.Close()
			os.Remove(zipPath)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %d files to %s\n", len(files), zipPath)
	default:
		for _, f := range files {
			fmt.Fprintf(w, "%-10s %-8s %s\n", f.Type, f.ComplianceStatus, f.Path)
		}
	}
	return nil
}

// openStore opens the configured SQLite database.
func openStore(cfg config.Config) (*store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}
	db, err := store.Open(paths.DatabasePath(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// newAssistant builds the assistant from config, or returns nil when no
// gateway is configured.
func newAssistant(cfg config.Config) *assistant.Assistant {
	if !cfg.Assistant.Enabled() {
		return nil
	}
	client := llm.NewGatewayClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.Model,
		llm.WithTimeout(cfg.Assistant.Timeout()),
		llm.WithLogger(log),
	)
	return assistant.New(assistant.Config{
		Model:       cfg.Assistant.Model,
		ReviewModel: cfg.Assistant.ReviewModel,
		MaxTokens:   cfg.Assistant.MaxTokens,
	}, client, log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
