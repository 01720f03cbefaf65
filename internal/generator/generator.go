// Package generator renders a project model into the files of a runnable
// AIOS scaffold.
//
// Generate is a pure function of its arguments: it reads no clock, draws no
// random IDs and walks maps in sorted key order, so the same model always
// yields byte-identical files. Every string interpolated into YAML or
// TypeScript goes through the same JSON-style double quoting, which keeps the
// YAML output parseable whatever the user typed.
package generator

import "github.com/soyeahso/aiosforge/internal/domain"

// Placeholders used when the model leaves a field empty.
const (
	DefaultProjectName        = "Untitled AIOS Project"
	DefaultProjectDescription = "A multi-agent AIOS system."
	DefaultModel              = "gpt-4o-mini"
	defaultSlug               = "aios-project"
)

// FixedFileCount is the number of files emitted regardless of the model.
const FixedFileCount = 24

type renderer struct {
	path string
	typ  domain.FileType
	fn   func(*view) string
}

// fixed lists the manifest files that do not depend on model size, in
// output order.
var fixed = []renderer{
	{"aios.config.yaml", domain.FileYAML, renderConfig},
	{"src/main.ts", domain.FileTypeScript, renderMainTS},
	{"src/orchestrator.ts", domain.FileTypeScript, renderOrchestratorTS},
	{"src/agent-runner.ts", domain.FileTypeScript, renderAgentRunnerTS},
	{"src/logger.ts", domain.FileTypeScript, renderLoggerTS},
	{"src/env.ts", domain.FileTypeScript, renderEnvTS},
	{"src/types.ts", domain.FileTypeScript, renderTypesTS},
	{"package.json", domain.FileJSON, renderPackageJSON},
	{"tsconfig.json", domain.FileJSON, renderTSConfig},
	{".env.example", domain.FileText, renderEnvExample},
	{"Dockerfile", domain.FileDockerfile, renderDockerfile},
	{"docker-compose.yaml", domain.FileYAML, renderCompose},
	{".dockerignore", domain.FileText, renderDockerignore},
	{"CLAUDE.md", domain.FileMarkdown, renderClaudeMD},
	{"README.md", domain.FileMarkdown, renderReadme},
	{"docs/manual.md", domain.FileMarkdown, renderManual},
	{"docs/setup.md", domain.FileMarkdown, renderSetup},
	{"docs/architecture.md", domain.FileMarkdown, renderArchitecture},
	{".aios/memory/project-status.yaml", domain.FileYAML, renderProjectStatus},
	{".aios/memory/decisions.json", domain.FileJSON, renderDecisions},
	{".aios/memory/codebase-map.json", domain.FileJSON, renderCodebaseMap},
	{"docs/stories/TEMPLATE.md", domain.FileMarkdown, renderStoryTemplate},
	{".gitignore", domain.FileText, renderGitignore},
	{"scripts/setup.sh", domain.FileShell, renderSetupScript},
}

// Generate renders every file of the scaffold for m. When compliance is
// non-nil its verdicts are overlaid as the final step; see ApplyCompliance.
// Generate never fails: missing fields fall back to placeholders.
func Generate(m domain.Model, compliance map[string]domain.ComplianceResult) []domain.GeneratedFile {
	v := newView(m)
	files := make([]domain.GeneratedFile, 0, FixedFileCount+2*len(v.agents)+2*len(v.squads)+len(v.workflows))

	emit := func(path string, typ domain.FileType, content string) {
		files = append(files, domain.GeneratedFile{
			Path:             path,
			Content:          content,
			Type:             typ,
			ComplianceStatus: domain.CompliancePending,
		})
	}

	for _, r := range fixed {
		emit(r.path, r.typ, r.fn(v))
	}
	for _, a := range v.agents {
		emit(agentYAMLPath(a.Slug), domain.FileYAML, renderAgentYAML(v, a))
		emit(agentMDPath(a.Slug), domain.FileMarkdown, renderAgentMD(v, a))
	}
	for _, s := range v.squads {
		emit(squadYAMLPath(s.Slug), domain.FileYAML, renderSquadYAML(v, s))
		emit(squadReadmePath(s.Slug), domain.FileMarkdown, renderSquadReadme(v, s))
	}
	for _, w := range v.workflows {
		emit(workflowPath(w.slug), domain.FileYAML, renderWorkflowYAML(v, w))
	}

	if compliance != nil {
		files = ApplyCompliance(files, compliance)
	}
	return files
}

// Manifest returns the paths Generate emits for m, in output order.
func Manifest(m domain.Model) []string {
	v := newView(m)
	paths := make([]string, 0, FixedFileCount+2*len(v.agents)+2*len(v.squads)+len(v.workflows))
	for _, r := range fixed {
		paths = append(paths, r.path)
	}
	for _, a := range v.agents {
		paths = append(paths, agentYAMLPath(a.Slug), agentMDPath(a.Slug))
	}
	for _, s := range v.squads {
		paths = append(paths, squadYAMLPath(s.Slug), squadReadmePath(s.Slug))
	}
	for _, w := range v.workflows {
		paths = append(paths, workflowPath(w.slug))
	}
	return paths
}

func agentYAMLPath(slug string) string   { return "agents/" + slug + ".yaml" }
func agentMDPath(slug string) string     { return "agents/" + slug + ".md" }
func squadYAMLPath(slug string) string   { return "squads/" + slug + "/squad.yaml" }
func squadReadmePath(slug string) string { return "squads/" + slug + "/README.md" }
func workflowPath(slug string) string    { return "workflows/" + slug + ".yaml" }

// view is the normalized model every renderer reads from. Normalization
// happens once so that every file sees the same names and slugs.
type view struct {
	model       domain.Model
	name        string
	slug        string
	description string
	domain      string
	pattern     domain.Pattern
	agents      []domain.Agent
	squads      []domain.Squad
	workflows   []workflowView
	// squadsOf maps an agent slug to the slugs of squads it belongs to.
	squadsOf map[string][]string
}

type workflowView struct {
	domain.Workflow
	slug string
}

func newView(m domain.Model) *view {
	v := &view{
		model:       m,
		name:        m.Project.Name,
		description: m.Project.Description,
		domain:      m.Project.Domain,
		pattern:     m.Project.Pattern.OrDefault(),
		squadsOf:    map[string][]string{},
	}
	if v.name == "" {
		v.name = DefaultProjectName
	}
	if v.description == "" {
		v.description = DefaultProjectDescription
	}
	v.slug = domain.Slugify(v.name)
	if v.slug == "" {
		v.slug = defaultSlug
	}

	for _, a := range m.Agents {
		a = a.Clone()
		if a.Name == "" {
			a.Name = a.Slug
		}
		if a.LLMModel == "" {
			a.LLMModel = DefaultModel
		}
		a.Visibility = a.Visibility.OrDefault()
		v.agents = append(v.agents, a)
	}

	for _, s := range m.Squads {
		s = s.Clone()
		if s.Name == "" {
			s.Name = s.Slug
		}
		v.squads = append(v.squads, s)
		for _, id := range s.AgentIDs {
			v.squadsOf[id] = append(v.squadsOf[id], s.Slug)
		}
	}

	for i, w := range m.Workflows {
		v.workflows = append(v.workflows, workflowView{Workflow: w, slug: domain.WorkflowSlug(w, i)})
	}
	return v
}

// agent returns the normalized agent for slug.
func (v *view) agent(slug string) (domain.Agent, bool) {
	for _, a := range v.agents {
		if a.Slug == slug {
			return a, true
		}
	}
	return domain.Agent{}, false
}

// knownAgent returns slug when it names an agent of the model, else "".
func (v *view) knownAgent(slug string) string {
	if _, ok := v.agent(slug); ok {
		return slug
	}
	return ""
}

func (v *view) agentSlugs() []string {
	out := make([]string, 0, len(v.agents))
	for _, a := range v.agents {
		out = append(out, a.Slug)
	}
	return out
}

// entryAgent is the agent the orchestrator hands work to first.
func (v *view) entryAgent() string {
	if len(v.agents) == 0 {
		return ""
	}
	return v.agents[0].Slug
}
