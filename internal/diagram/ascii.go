package diagram

import (
	"strings"

	"github.com/soyeahso/aiosforge/internal/domain"
)

// RenderASCII draws the model's topology as plain text for generated docs.
// Names and slugs are taken verbatim from the model.
func RenderASCII(m domain.Model) string {
	var b strings.Builder
	pattern := m.Project.Pattern.OrDefault()

	name := m.Project.Name
	if name == "" {
		name = "Orchestrator"
	}
	b.WriteString("[orchestrator] " + name + " (" + pattern.Title() + ")\n")

	if len(m.Agents) == 0 {
		b.WriteString("  (no agents)\n")
	} else if pattern == domain.PatternSequentialPipeline {
		parts := make([]string, 0, len(m.Agents)+1)
		parts = append(parts, "orchestrator")
		for _, a := range m.Agents {
			parts = append(parts, a.Slug)
		}
		b.WriteString("  " + strings.Join(parts, " -> ") + "\n")
	} else {
		for i, a := range m.Agents {
			branch := "├─>"
			if i == len(m.Agents)-1 {
				branch = "└─>"
			}
			b.WriteString("  " + branch + " " + agentLabel(a) + "\n")
		}
	}

	if len(m.Squads) > 0 {
		b.WriteString("\n[squads]\n")
		for _, s := range m.Squads {
			var members []string
			for _, id := range s.AgentIDs {
				if m.HasAgent(id) {
					members = append(members, id)
				}
			}
			list := "(empty)"
			if len(members) > 0 {
				list = strings.Join(members, ", ")
			}
			b.WriteString("  " + s.Slug + ": " + list + "\n")
		}
	}

	edges := workflowEdges(m)
	if len(edges) > 0 {
		b.WriteString("\n[workflow handoffs]\n")
		for _, e := range edges {
			b.WriteString("  " + strings.TrimPrefix(e.Source, "agent-") + " => " + strings.TrimPrefix(e.Target, "agent-") + "\n")
		}
	}
	return b.String()
}

func agentLabel(a domain.Agent) string {
	if a.Role == "" {
		return a.Slug
	}
	return a.Slug + " (" + a.Role + ")"
}
