// Package catalog provides the native agents a project can start from.
package catalog

import "github.com/soyeahso/aiosforge/internal/domain"

const defaultModel = "gpt-4o-mini"

var native = []domain.Agent{
	{
		Slug:         "analyst",
		Name:         "Analyst",
		Role:         "Business Analyst",
		Description:  "Researches the problem space and turns raw ideas into a project brief.",
		SystemPrompt: "You are a business analyst. Clarify goals, users and constraints, then write a concise project brief.",
		Commands:     []string{"/brainstorm", "/research", "/brief"},
		Tools:        []string{"web-search"},
		Skills:       []string{"market-research", "requirements-elicitation"},
	},
	{
		Slug:         "pm",
		Name:         "Product Manager",
		Role:         "Product Manager",
		Description:  "Owns the product requirements document and prioritizes the backlog.",
		SystemPrompt: "You are a product manager. Turn the project brief into a PRD with epics, stories and acceptance criteria.",
		Commands:     []string{"/prd", "/epic", "/prioritize"},
		Skills:       []string{"prd-writing", "prioritization"},
	},
	{
		Slug:         "architect",
		Name:         "Architect",
		Role:         "Solution Architect",
		Description:  "Designs the system architecture and records technical decisions.",
		SystemPrompt: "You are a solution architect. Design components, data flow and interfaces, and record each decision with its trade-offs.",
		Commands:     []string{"/architecture", "/adr"},
		Tools:        []string{"diagram"},
		Skills:       []string{"system-design", "api-design"},
	},
	{
		Slug:         "dev",
		Name:         "Developer",
		Role:         "Full Stack Developer",
		Description:  "Implements stories, writes tests and keeps the codebase map current.",
		SystemPrompt: "You are a senior developer. Implement the assigned story, write tests, and report the files you changed.",
		Commands:     []string{"/develop", "/test", "/refactor"},
		Tools:        []string{"filesystem", "shell", "git"},
		Skills:       []string{"typescript", "testing"},
	},
	{
		Slug:         "qa",
		Name:         "QA Engineer",
		Role:         "Quality Assurance",
		Description:  "Reviews deliverables against acceptance criteria and reports defects.",
		SystemPrompt: "You are a QA engineer. Verify each deliverable against its acceptance criteria and list every defect with steps to reproduce.",
		Commands:     []string{"/review", "/test-plan"},
		Tools:        []string{"shell"},
		Skills:       []string{"test-design", "code-review"},
	},
	{
		Slug:         "sm",
		Name:         "Scrum Master",
		Role:         "Scrum Master",
		Description:  "Breaks epics into stories and keeps the project status up to date.",
		SystemPrompt: "You are a scrum master. Split epics into small stories using the story template and track their status.",
		Commands:     []string{"/draft-story", "/status"},
		Skills:       []string{"agile-planning"},
	},
	{
		Slug:         "po",
		Name:         "Product Owner",
		Role:         "Product Owner",
		Description:  "Validates that stories and documents stay consistent with the PRD.",
		SystemPrompt: "You are a product owner. Check every story against the PRD and flag gaps or contradictions.",
		Commands:     []string{"/validate", "/accept"},
		Skills:       []string{"backlog-management"},
	},
	{
		Slug:         "ux-expert",
		Name:         "UX Expert",
		Role:         "UX Designer",
		Description:  "Designs user flows and interface specifications.",
		SystemPrompt: "You are a UX expert. Describe user flows, screens and interaction details for each feature.",
		Commands:     []string{"/ux-spec", "/wireframe"},
		Skills:       []string{"interaction-design", "accessibility"},
	},
	{
		Slug:         "devops",
		Name:         "DevOps Engineer",
		Role:         "DevOps Engineer",
		Description:  "Owns build, deployment and runtime configuration.",
		SystemPrompt: "You are a DevOps engineer. Maintain the Docker setup, CI pipeline and environment configuration.",
		Commands:     []string{"/deploy", "/pipeline"},
		Tools:        []string{"shell", "docker"},
		Skills:       []string{"containers", "ci-cd"},
	},
}

// Native returns copies of the built-in agents in catalog order.
func Native() []domain.Agent {
	out := make([]domain.Agent, 0, len(native))
	for _, a := range native {
		out = append(out, withDefaults(a))
	}
	return out
}

// Lookup returns a copy of the native agent with the given slug.
func Lookup(slug string) (domain.Agent, bool) {
	for _, a := range native {
		if a.Slug == slug {
			return withDefaults(a), true
		}
	}
	return domain.Agent{}, false
}

func withDefaults(a domain.Agent) domain.Agent {
	out := a.Clone()
	if out.LLMModel == "" {
		out.LLMModel = defaultModel
	}
	out.Visibility = out.Visibility.OrDefault()
	return out
}
