package generator

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/soyeahso/aiosforge/internal/domain"
)

func renderConfig(v *view) string {
	var d doc
	d.line("# AIOS system configuration")
	d.kv(0, "version", "1.0")
	d.line("project:")
	d.kv(2, "name", v.name)
	d.kv(2, "slug", v.slug)
	d.kv(2, "description", v.description)
	d.kv(2, "domain", v.domain)

	d.line("orchestration:")
	d.kv(2, "pattern", string(v.pattern))
	d.kv(2, "title", v.pattern.Title())
	d.kv(2, "entry_agent", v.entryAgent())
	switch v.pattern {
	case domain.PatternParallelSwarm:
		d.linef("  max_parallel: %d", max(len(v.agents), 1))
	case domain.PatternCollaborative:
		d.line("  max_rounds: 3")
	case domain.PatternWatchdog:
		d.line("  max_retries: 2")
	}

	if len(v.agents) == 0 {
		d.line("agents: []")
	} else {
		d.line("agents:")
		for _, a := range v.agents {
			d.kv(2, "- slug", a.Slug)
			d.kv(4, "name", a.Name)
			d.kv(4, "role", a.Role)
			d.kv(4, "model", a.LLMModel)
			d.kv(4, "visibility", string(a.Visibility))
			d.kv(4, "config", agentYAMLPath(a.Slug))
			d.kv(4, "docs", agentMDPath(a.Slug))
		}
	}

	if len(v.squads) == 0 {
		d.line("squads: []")
	} else {
		d.line("squads:")
		for _, s := range v.squads {
			d.kv(2, "- slug", s.Slug)
			d.kv(4, "name", s.Name)
			d.linef("    agents: %s", qList(v.members(s)))
			d.kv(4, "manifest", squadYAMLPath(s.Slug))
		}
	}

	if len(v.workflows) == 0 {
		d.line("workflows: []")
	} else {
		d.line("workflows:")
		for _, w := range v.workflows {
			d.kv(2, "- slug", w.slug)
			d.kv(4, "name", w.Name)
			d.kv(4, "file", workflowPath(w.slug))
			d.linef("    steps: %d", len(w.Steps))
		}
	}

	if len(v.model.Integrations) == 0 {
		d.line("integrations: []")
	} else {
		d.line("integrations:")
		for _, in := range v.model.Integrations {
			d.kv(2, "- kind", in.Kind)
			d.kv(4, "name", in.Name)
			d.linef("    enabled: %t", in.Enabled)
			writeSettings(&d, 4, in.Settings)
		}
	}

	d.line("runtime:")
	d.kv(2, "language", "typescript")
	d.kv(2, "entry", "src/main.ts")
	d.kv(2, "log_level", "info")
	d.line("memory:")
	d.kv(2, "path", ".aios/memory")
	d.kv(2, "status", ".aios/memory/project-status.yaml")
	d.kv(2, "decisions", ".aios/memory/decisions.json")
	d.kv(2, "codebase_map", ".aios/memory/codebase-map.json")
	return d.String()
}

func writeSettings(d *doc, indent int, settings map[string]string) {
	if len(settings) == 0 {
		d.linef("%ssettings: {}", pad(indent))
		return
	}
	d.linef("%ssettings:", pad(indent))
	for _, k := range sortedKeys(settings) {
		d.linef("%s  %s: %s", pad(indent), q(k), q(settings[k]))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// members returns the squad's agent IDs that name existing agents.
func (v *view) members(s domain.Squad) []string {
	out := make([]string, 0, len(s.AgentIDs))
	for _, id := range s.AgentIDs {
		if v.knownAgent(id) != "" {
			out = append(out, id)
		}
	}
	return out
}

func systemPrompt(v *view, a domain.Agent) string {
	if a.SystemPrompt != "" {
		return a.SystemPrompt
	}
	role := a.Role
	if role == "" {
		role = "an agent"
	}
	return fmt.Sprintf("You are %s, %s in the %s system.", a.Name, role, v.name)
}

func renderAgentYAML(v *view, a domain.Agent) string {
	var d doc
	d.linef("# Agent definition for %s", oneLine(a.Name))
	d.kv(0, "slug", a.Slug)
	d.kv(0, "name", a.Name)
	d.kv(0, "role", a.Role)
	d.kv(0, "description", a.Description)
	d.kv(0, "model", a.LLMModel)
	d.kv(0, "visibility", string(a.Visibility))
	d.linef("custom: %t", a.Custom)
	d.kv(0, "system_prompt", systemPrompt(v, a))
	d.list(0, "commands", a.Commands)
	d.list(0, "tools", a.Tools)
	d.list(0, "skills", a.Skills)
	if len(a.Memory) == 0 {
		d.line("memory: []")
	} else {
		d.line("memory:")
		for _, m := range a.Memory {
			d.kv(2, "- key", m.Key)
			d.kv(4, "content", m.Content)
		}
	}
	d.list(0, "squads", v.squadsOf[a.Slug])
	return d.String()
}

func renderSquadYAML(v *view, s domain.Squad) string {
	var d doc
	d.linef("# Squad manifest for %s", oneLine(s.Name))
	d.kv(0, "slug", s.Slug)
	d.kv(0, "name", s.Name)
	d.kv(0, "description", s.Description)
	d.list(0, "agents", v.members(s))

	if len(s.Tasks) == 0 {
		d.line("tasks: []")
	} else {
		d.line("tasks:")
		for _, t := range s.Tasks {
			d.kv(2, "- id", t.ID)
			d.kv(4, "name", t.Name)
			d.kv(4, "description", t.Description)
			d.kv(4, "agent", v.knownAgent(t.AgentID))
			d.linef("    dependencies: %s", qList(t.Dependencies))
			d.list(4, "checklist", t.Checklist)
		}
	}

	if len(s.Workflows) == 0 {
		d.line("workflows: []")
	} else {
		d.line("workflows:")
		for i, w := range s.Workflows {
			d.kv(2, "- id", w.ID)
			d.kv(4, "slug", squadWorkflowSlug(w, i))
			d.kv(4, "name", w.Name)
			writeSteps(&d, v, 4, w.Steps)
		}
	}
	return d.String()
}

func squadWorkflowSlug(w domain.Workflow, i int) string {
	if w.Slug != "" {
		return w.Slug
	}
	if s := domain.Slugify(w.Name); s != "" {
		return s
	}
	return "workflow-" + strconv.Itoa(i+1)
}

func writeSteps(d *doc, v *view, indent int, steps []domain.WorkflowStep) {
	if len(steps) == 0 {
		d.linef("%ssteps: []", pad(indent))
		return
	}
	d.linef("%ssteps:", pad(indent))
	for _, st := range steps {
		d.kv(indent+2, "- id", st.ID)
		d.kv(indent+4, "name", st.Name)
		d.kv(indent+4, "agent", v.knownAgent(st.AgentSlug))
		d.kv(indent+4, "description", st.Description)
		d.linef("%sdepends_on: %s", pad(indent+4), qList(st.DependsOn))
		d.kv(indent+4, "task", st.TaskID)
	}
}

func renderWorkflowYAML(v *view, w workflowView) string {
	var d doc
	d.linef("# Workflow %s", oneLine(w.Name))
	d.kv(0, "id", w.ID)
	d.kv(0, "slug", w.slug)
	d.kv(0, "name", w.Name)
	d.kv(0, "description", w.Description)
	writeSteps(&d, v, 0, w.Steps)
	return d.String()
}

func renderCompose(v *view) string {
	var d doc
	d.line("services:")
	d.linef("  %s:", v.slug)
	d.line("    build: .")
	d.kv(4, "image", v.slug+":latest")
	d.line("    env_file:")
	d.line(`      - ".env"`)
	d.line("    environment:")
	d.kv(6, "LOG_LEVEL", "info")
	d.line("    volumes:")
	d.line(`      - "./.aios:/app/.aios"`)
	d.line(`      - "./agents:/app/agents:ro"`)
	d.line(`      - "./squads:/app/squads:ro"`)
	d.line(`      - "./workflows:/app/workflows:ro"`)
	d.line(`    restart: "unless-stopped"`)
	return d.String()
}

func renderProjectStatus(v *view) string {
	var d doc
	d.line("# Living project status, updated by the agents as work progresses")
	d.kv(0, "project", v.name)
	d.kv(0, "phase", "planning")
	d.kv(0, "pattern", string(v.pattern))
	d.kv(0, "current_story", "")
	d.line("stories: []")
	if len(v.agents) == 0 {
		d.line("agents: []")
	} else {
		d.line("agents:")
		for _, a := range v.agents {
			d.kv(2, "- slug", a.Slug)
			d.kv(4, "status", "idle")
		}
	}
	d.line("blockers: []")
	return d.String()
}
