package assistant

import (
	"fmt"
	"strings"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/wizard"
)

// WizardState is what the chat panel knows about the user's progress.
type WizardState struct {
	Step  wizard.Step  `json:"step"`
	Model domain.Model `json:"model"`
}

var stepHints = map[wizard.Step]string{
	wizard.StepDiscovery:    "Help the user describe the problem their multi-agent system should solve.",
	wizard.StepProject:      "Help the user choose a project name, description, domain and orchestration pattern.",
	wizard.StepAgents:       "Suggest agents with clear roles, commands and tools. Each agent needs a unique slug.",
	wizard.StepSquads:       "Help group agents into squads with tasks and workflows.",
	wizard.StepIntegrations: "Help the user pick the external integrations the system needs.",
	wizard.StepReview:       "Point out gaps or inconsistencies in the configuration before generation.",
	wizard.StepGeneration:   "Explain the generated files and how to run them.",
}

// BuildSystemPrompt describes the wizard state to the LLM.
func BuildSystemPrompt(st WizardState) string {
	var b strings.Builder
	m := st.Model

	b.WriteString("You are the AIOS Forge assistant. You help users design multi-agent AIOS systems ")
	b.WriteString("made of agents, squads and workflows, and export them as runnable projects.\n\n")

	if st.Step.Valid() {
		fmt.Fprintf(&b, "Current step: %s (%d of %d)\n", st.Step, st.Step.Index()+1, len(wizard.Steps()))
		if hint := stepHints[st.Step]; hint != "" {
			b.WriteString(hint + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Project\n\n")
	name := m.Project.Name
	if strings.TrimSpace(name) == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	if m.Project.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", m.Project.Description)
	}
	if m.Project.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", m.Project.Domain)
	}
	fmt.Fprintf(&b, "Pattern: %s\n", m.Project.Pattern.OrDefault().Title())

	fmt.Fprintf(&b, "\n## Agents (%d)\n\n", len(m.Agents))
	for _, a := range m.Agents {
		fmt.Fprintf(&b, "- %s (%s)", a.Name, a.Slug)
		if a.Role != "" {
			fmt.Fprintf(&b, ": %s", a.Role)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n## Squads (%d)\n\n", len(m.Squads))
	for _, s := range m.Squads {
		fmt.Fprintf(&b, "- %s (%s): %s\n", s.Name, s.Slug, strings.Join(s.AgentIDs, ", "))
	}

	if len(m.Workflows) > 0 {
		fmt.Fprintf(&b, "\n## Workflows (%d)\n\n", len(m.Workflows))
		for _, w := range m.Workflows {
			fmt.Fprintf(&b, "- %s: %d steps\n", w.Name, len(w.Steps))
		}
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Keep answers short and specific to the current step.\n")
	b.WriteString("- Use the slugs above when referring to existing agents and squads.\n")
	return b.String()
}
