package generator

import (
	"strconv"
	"strings"

	"github.com/soyeahso/aiosforge/internal/diagram"
	"github.com/soyeahso/aiosforge/internal/domain"
)

func title(s string) string { return oneLine(s) }

func agentTable(d *doc, v *view) {
	if len(v.agents) == 0 {
		d.line("_No agents defined yet._")
		return
	}
	d.line("| Slug | Name | Role | Model |")
	d.line("| --- | --- | --- | --- |")
	for _, a := range v.agents {
		d.line("| " + cell(a.Slug) + " | " + cell(a.Name) + " | " + cell(a.Role) + " | " + cell(a.LLMModel) + " |")
	}
}

func renderReadme(v *view) string {
	var d doc
	d.line("# " + title(v.name))
	d.blank()
	d.line(oneLine(v.description))
	d.blank()
	if v.domain != "" {
		d.line("**Domain:** " + oneLine(v.domain))
		d.blank()
	}
	d.line("**Orchestration:** " + patternSummary(v.pattern))
	d.blank()
	d.line("## Agents")
	d.blank()
	agentTable(&d, v)
	d.blank()
	d.line("## Squads")
	d.blank()
	if len(v.squads) == 0 {
		d.line("_No squads defined yet._")
	}
	for _, s := range v.squads {
		d.line("- **" + oneLine(s.Name) + "** (" + squadReadmePath(s.Slug) + "): " + strings.Join(v.members(s), ", "))
	}
	d.blank()
	d.line("## Quick start")
	d.blank()
	d.line(fence + "sh")
	d.line("./scripts/setup.sh")
	d.line(`npm start -- "describe the task"`)
	d.line(fence)
	d.blank()
	d.line("See [docs/setup.md](docs/setup.md) for configuration and [docs/manual.md](docs/manual.md) for day to day use.")
	return d.String()
}

func renderClaudeMD(v *view) string {
	var d doc
	d.line("# " + title(v.name) + " working agreement")
	d.blank()
	d.line("This repository is an AIOS multi-agent system. Read this file before changing anything.")
	d.blank()
	d.line("## Layout")
	d.blank()
	d.line("- `aios.config.yaml` is the system manifest. Keep it in sync with `agents/`, `squads/` and `workflows/`.")
	d.line("- `agents/<slug>.yaml` defines an agent; `agents/<slug>.md` documents it.")
	d.line("- `src/` holds the TypeScript runtime. `src/orchestrator.ts` implements the " + v.pattern.Title() + " pattern.")
	d.line("- `.aios/memory/` is shared agent memory. Update `project-status.yaml` when a story changes state and append to `decisions.json` for every architectural decision.")
	d.line("- `docs/stories/` holds stories written from `docs/stories/TEMPLATE.md`.")
	d.blank()
	d.line("## Agents")
	d.blank()
	if len(v.agents) == 0 {
		d.line("_No agents defined yet._")
	}
	for _, a := range v.agents {
		line := "- `" + a.Slug + "`: " + oneLine(a.Name)
		if a.Role != "" {
			line += ", " + oneLine(a.Role)
		}
		if len(a.Commands) > 0 {
			line += " (" + strings.Join(a.Commands, " ") + ")"
		}
		d.line(line)
	}
	d.blank()
	d.line("## Rules")
	d.blank()
	d.line("1. Work on one story at a time and record progress in `.aios/memory/project-status.yaml`.")
	d.line("2. Never commit `.env` or API keys.")
	d.line("3. Run `npm run build` before handing work to the next agent.")
	return d.String()
}

func renderManual(v *view) string {
	var d doc
	d.line("# " + title(v.name) + " user manual")
	d.blank()
	d.line("## Running a task")
	d.blank()
	d.line(fence + "sh")
	d.line(`npm start -- "describe the task"`)
	d.line(fence)
	d.blank()
	d.line("The orchestrator uses the **" + v.pattern.Title() + "** pattern. " + v.pattern.Describe())
	d.blank()
	d.line("## Agent commands")
	d.blank()
	if len(v.agents) == 0 {
		d.line("_No agents defined yet._")
	}
	for _, a := range v.agents {
		d.line("### " + title(a.Name))
		d.blank()
		if a.Description != "" {
			d.line(oneLine(a.Description))
			d.blank()
		}
		d.bullets(a.Commands, "No commands.")
		d.blank()
	}
	d.line("## Workflows")
	d.blank()
	if len(v.workflows) == 0 {
		d.line("_No workflows defined yet._")
	}
	for _, w := range v.workflows {
		d.line("### " + title(w.Name) + " (`" + workflowPath(w.slug) + "`)")
		d.blank()
		if len(w.Steps) == 0 {
			d.line("_No steps._")
		}
		for i, st := range w.Steps {
			name := st.Name
			if name == "" {
				name = st.ID
			}
			step := strconv.Itoa(i+1) + ". " + oneLine(name)
			if agent := v.knownAgent(st.AgentSlug); agent != "" {
				step += " (`" + agent + "`)"
			}
			d.line(step)
		}
		d.blank()
	}
	return d.String()
}

func renderSetup(v *view) string {
	var d doc
	d.line("# Setup")
	d.blank()
	d.line("## Requirements")
	d.blank()
	d.line("- Node.js 22 or newer")
	d.line("- An OpenAI compatible API key")
	d.line("- Docker (optional)")
	d.blank()
	d.line("## Local")
	d.blank()
	d.line(fence + "sh")
	d.line("./scripts/setup.sh")
	d.line(fence)
	d.blank()
	d.line("The script creates `.env` from `.env.example`. Set `LLM_API_KEY` before the first run.")
	d.blank()
	d.line("## Docker")
	d.blank()
	d.line(fence + "sh")
	d.line("docker compose up --build")
	d.line(fence)
	d.blank()
	d.line("## Environment")
	d.blank()
	d.line("| Variable | Purpose |")
	d.line("| --- | --- |")
	d.line("| `LLM_API_KEY` | API key for the model gateway |")
	d.line("| `LLM_BASE_URL` | Gateway base URL |")
	d.line("| `DEFAULT_MODEL` | Model used when an agent sets none |")
	d.line("| `LOG_LEVEL` | debug, info, warn or error |")
	for _, in := range v.model.Integrations {
		prefix := envKey(in.Kind)
		if prefix == "" {
			continue
		}
		name := in.Name
		if name == "" {
			name = in.Kind
		}
		d.line("| `" + prefix + "_ENABLED` | Enables the " + cell(name) + " integration |")
	}
	return d.String()
}

func renderArchitecture(v *view) string {
	var d doc
	d.line("# Architecture")
	d.blank()
	d.line("## Orchestration")
	d.blank()
	d.line(patternSummary(v.pattern))
	d.blank()
	d.line(fence + "text")
	d.lines(diagram.RenderASCII(v.diagramModel()))
	d.line(fence)
	d.blank()
	d.line("## Agents")
	d.blank()
	agentTable(&d, v)
	d.blank()
	d.line("## Runtime")
	d.blank()
	d.line("- `src/main.ts` reads the task from the command line.")
	d.line("- `src/orchestrator.ts` decides which agents run and in what order.")
	d.line("- `src/agent-runner.ts` loads `agents/<slug>.yaml` and calls the model gateway.")
	d.line("- `.aios/memory/` persists status, decisions and the codebase map between runs.")
	if len(v.model.Integrations) > 0 {
		d.blank()
		d.line("## Integrations")
		d.blank()
		for _, in := range v.model.Integrations {
			state := "disabled"
			if in.Enabled {
				state = "enabled"
			}
			name := in.Name
			if name == "" {
				name = in.Kind
			}
			d.line("- " + oneLine(name) + " (" + oneLine(in.Kind) + "), " + state)
		}
	}
	return d.String()
}

// diagramModel is the model with the placeholder project name applied.
func (v *view) diagramModel() domain.Model {
	m := v.model
	m.Project.Name = v.name
	m.Project.Pattern = v.pattern
	return m
}

func renderStoryTemplate(v *view) string {
	var d doc
	d.lines(`# Story: <title>

**Status:** draft
**Owner:** <agent slug>

## Context

<why this story exists>

## Acceptance criteria

- [ ] <criterion>

## Tasks

- [ ] <task>

## Notes

<links, decisions, open questions>`)
	return d.String()
}

func renderAgentMD(v *view, a domain.Agent) string {
	var d doc
	d.line("---")
	d.kv(0, "slug", a.Slug)
	d.kv(0, "name", a.Name)
	d.kv(0, "role", a.Role)
	d.kv(0, "model", a.LLMModel)
	d.kv(0, "visibility", string(a.Visibility))
	d.line("---")
	d.blank()
	d.line("# " + title(a.Name))
	d.blank()
	if a.Role != "" {
		d.line("> " + oneLine(a.Role))
		d.blank()
	}
	if a.Description != "" {
		d.line(oneLine(a.Description))
		d.blank()
	}
	d.line("## System prompt")
	d.blank()
	d.line(fence + "text")
	d.lines(systemPrompt(v, a))
	d.line(fence)
	d.blank()
	d.line("## Commands")
	d.blank()
	d.bullets(a.Commands, "No commands.")
	d.blank()
	d.line("## Tools")
	d.blank()
	d.bullets(a.Tools, "No tools.")
	d.blank()
	d.line("## Skills")
	d.blank()
	d.bullets(a.Skills, "No skills.")
	if len(a.Memory) > 0 {
		d.blank()
		d.line("## Memory")
		d.blank()
		for _, m := range a.Memory {
			d.line("- **" + oneLine(m.Key) + "**: " + oneLine(m.Content))
		}
	}
	if squads := v.squadsOf[a.Slug]; len(squads) > 0 {
		d.blank()
		d.line("## Squads")
		d.blank()
		d.bullets(squads, "")
	}
	return d.String()
}

func renderSquadReadme(v *view, s domain.Squad) string {
	var d doc
	d.line("# " + title(s.Name))
	d.blank()
	if s.Description != "" {
		d.line(oneLine(s.Description))
		d.blank()
	}
	d.line("## Members")
	d.blank()
	members := v.members(s)
	if len(members) == 0 {
		d.line("_No members._")
	} else {
		d.line("| Agent | Role |")
		d.line("| --- | --- |")
		for _, slug := range members {
			a, _ := v.agent(slug)
			d.line("| " + cell(a.Name) + " (`" + slug + "`) | " + cell(a.Role) + " |")
		}
	}
	d.blank()
	d.line("## Tasks")
	d.blank()
	if len(s.Tasks) == 0 {
		d.line("_No tasks._")
		d.blank()
	}
	for _, t := range s.Tasks {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		d.line("### " + title(name))
		d.blank()
		if t.Description != "" {
			d.line(oneLine(t.Description))
			d.blank()
		}
		if agent := v.knownAgent(t.AgentID); agent != "" {
			d.line("Owner: `" + agent + "`")
			d.blank()
		}
		if len(t.Dependencies) > 0 {
			d.line("Depends on: " + strings.Join(t.Dependencies, ", "))
			d.blank()
		}
		for _, c := range t.Checklist {
			d.line("- [ ] " + oneLine(c))
		}
		if len(t.Checklist) > 0 {
			d.blank()
		}
	}
	if len(s.Workflows) > 0 {
		d.line("## Workflows")
		d.blank()
		for _, w := range s.Workflows {
			d.line("- " + oneLine(w.Name) + " (" + strconv.Itoa(len(w.Steps)) + " steps)")
		}
	}
	return d.String()
}
