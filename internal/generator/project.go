package generator

import (
	"github.com/soyeahso/aiosforge/internal/domain"
)

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Private         bool              `json:"private"`
	Type            string            `json:"type"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func renderPackageJSON(v *view) string {
	return marshalJSON(packageJSON{
		Name:        v.slug,
		Version:     "0.1.0",
		Description: v.description,
		Private:     true,
		Type:        "commonjs",
		Scripts: map[string]string{
			"build": "tsc",
			"start": "node dist/main.js",
			"dev":   "tsx src/main.ts",
		},
		Dependencies: map[string]string{
			"dotenv": "^16.4.5",
			"yaml":   "^2.5.0",
		},
		DevDependencies: map[string]string{
			"@types/node": "^22.0.0",
			"tsx":         "^4.19.0",
			"typescript":  "^5.6.0",
		},
	})
}

type tsconfig struct {
	CompilerOptions struct {
		Target           string `json:"target"`
		Module           string `json:"module"`
		ModuleResolution string `json:"moduleResolution"`
		OutDir           string `json:"outDir"`
		RootDir          string `json:"rootDir"`
		Strict           bool   `json:"strict"`
		EsModuleInterop  bool   `json:"esModuleInterop"`
		SkipLibCheck     bool   `json:"skipLibCheck"`
	} `json:"compilerOptions"`
	Include []string `json:"include"`
}

func renderTSConfig(v *view) string {
	var c tsconfig
	c.CompilerOptions.Target = "ES2022"
	c.CompilerOptions.Module = "commonjs"
	c.CompilerOptions.ModuleResolution = "node"
	c.CompilerOptions.OutDir = "dist"
	c.CompilerOptions.RootDir = "src"
	c.CompilerOptions.Strict = true
	c.CompilerOptions.EsModuleInterop = true
	c.CompilerOptions.SkipLibCheck = true
	c.Include = []string{"src"}
	return marshalJSON(c)
}

func renderEnvExample(v *view) string {
	var d doc
	d.line("# Copy to .env and fill in the values.")
	d.line("LLM_API_KEY=")
	d.line("LLM_BASE_URL=https://api.openai.com")
	d.line("DEFAULT_MODEL=" + DefaultModel)
	d.line("LOG_LEVEL=info")
	d.line("AIOS_MEMORY_DIR=.aios/memory")
	for _, in := range v.model.Integrations {
		prefix := envKey(in.Kind)
		if prefix == "" {
			prefix = envKey(in.Name)
		}
		if prefix == "" {
			continue
		}
		d.blank()
		label := in.Name
		if label == "" {
			label = in.Kind
		}
		d.line("# " + oneLine(label))
		d.linef("%s_ENABLED=%t", prefix, in.Enabled)
		for _, k := range sortedKeys(in.Settings) {
			key := envKey(k)
			if key == "" {
				continue
			}
			d.line(prefix + "_" + key + "=" + oneLine(in.Settings[k]))
		}
	}
	return d.String()
}

func renderDockerfile(v *view) string {
	var d doc
	d.lines(`FROM node:22-alpine AS build
WORKDIR /app
COPY package.json ./
RUN npm install
COPY tsconfig.json ./
COPY src ./src
RUN npm run build

FROM node:22-alpine
WORKDIR /app
ENV NODE_ENV=production
COPY package.json ./
RUN npm install --omit=dev
COPY --from=build /app/dist ./dist
COPY aios.config.yaml ./
COPY agents ./agents
COPY squads ./squads
COPY workflows ./workflows
COPY .aios ./.aios`)
	d.line("LABEL org.opencontainers.image.title=" + q(v.name))
	d.line(`ENTRYPOINT ["node", "dist/main.js"]`)
	return d.String()
}

func renderDockerignore(v *view) string {
	var d doc
	d.lines(`node_modules
dist
.env
.git
*.log`)
	return d.String()
}

func renderGitignore(v *view) string {
	var d doc
	d.lines(`node_modules/
dist/
.env
*.log
.DS_Store`)
	return d.String()
}

func renderSetupScript(v *view) string {
	var d doc
	d.lines(`#!/usr/bin/env sh
set -eu

cd "$(dirname "$0")/.."

if ! command -v node >/dev/null 2>&1; then
  echo "node is required (v22 or newer)" >&2
  exit 1
fi

if [ ! -f .env ]; then
  cp .env.example .env
  echo "created .env from .env.example; set LLM_API_KEY before running"
fi

npm install
npm run build
mkdir -p .aios/memory docs/stories`)
	d.linef("echo %s", shellQuote("setup complete for "+v.name))
	return d.String()
}

// shellQuote wraps s in single quotes for POSIX sh.
func shellQuote(s string) string {
	out := "'"
	for _, r := range s {
		if r == '\'' {
			out += `'\''`
			continue
		}
		out += string(r)
	}
	return out + "'"
}

type decision struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Rationale string `json:"rationale"`
}

type decisionLog struct {
	Project   string     `json:"project"`
	Decisions []decision `json:"decisions"`
}

func renderDecisions(v *view) string {
	return marshalJSON(decisionLog{
		Project: v.name,
		Decisions: []decision{{
			ID:        "ADR-001",
			Title:     "Use the " + v.pattern.Title() + " orchestration pattern",
			Status:    "accepted",
			Rationale: v.pattern.Describe(),
		}},
	})
}

type codebaseEntry struct {
	Path    string `json:"path"`
	Purpose string `json:"purpose"`
}

type codebaseMap struct {
	Project string          `json:"project"`
	Entry   string          `json:"entry"`
	Files   []codebaseEntry `json:"files"`
	Agents  []string        `json:"agents"`
	Squads  []string        `json:"squads"`
}

func renderCodebaseMap(v *view) string {
	squads := make([]string, 0, len(v.squads))
	for _, s := range v.squads {
		squads = append(squads, s.Slug)
	}
	return marshalJSON(codebaseMap{
		Project: v.name,
		Entry:   "src/main.ts",
		Files: []codebaseEntry{
			{Path: "src/main.ts", Purpose: "command line entry point"},
			{Path: "src/orchestrator.ts", Purpose: string(v.pattern) + " orchestration"},
			{Path: "src/agent-runner.ts", Purpose: "loads agent definitions and calls the model"},
			{Path: "src/logger.ts", Purpose: "structured logging"},
			{Path: "src/env.ts", Purpose: "environment configuration"},
			{Path: "src/types.ts", Purpose: "shared types"},
		},
		Agents: v.agentSlugs(),
		Squads: squads,
	})
}

// patternSummary is used by several docs.
func patternSummary(p domain.Pattern) string {
	return p.Title() + ": " + p.Describe()
}
