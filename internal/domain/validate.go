package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidationIssue describes a problem with a model value.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks the referential invariants of a model. Returns nil if valid.
func Validate(m Model) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if m.Project.Pattern != "" && !m.Project.Pattern.Valid() {
		add("project.pattern", "must be one of %v, got %q", Patterns(), m.Project.Pattern)
	}

	agents := make(map[string]bool, len(m.Agents))
	for i, a := range m.Agents {
		path := fmt.Sprintf("agents[%d].slug", i)
		switch {
		case a.Slug == "":
			add(path, "slug is required")
			continue
		case !slugPattern.MatchString(a.Slug):
			add(path, "must be lowercase kebab-case, got %q", a.Slug)
		}
		if agents[a.Slug] {
			add(path, "duplicate agent slug %q", a.Slug)
		}
		agents[a.Slug] = true
	}

	squads := make(map[string]bool, len(m.Squads))
	for i, s := range m.Squads {
		base := fmt.Sprintf("squads[%d]", i)
		if s.Slug == "" {
			add(base+".slug", "slug is required")
		} else {
			if !slugPattern.MatchString(s.Slug) {
				add(base+".slug", "must be lowercase kebab-case, got %q", s.Slug)
			}
			if squads[s.Slug] {
				add(base+".slug", "duplicate squad slug %q", s.Slug)
			}
			squads[s.Slug] = true
		}

		for j, id := range s.AgentIDs {
			if !agents[id] {
				add(fmt.Sprintf("%s.agentIds[%d]", base, j), "unknown agent %q", id)
			}
		}

		issues = append(issues, validateTasks(base, s.Tasks, agents)...)
		for j, w := range s.Workflows {
			issues = append(issues, validateWorkflow(fmt.Sprintf("%s.workflows[%d]", base, j), w, agents)...)
		}
	}

	workflows := make(map[string]bool, len(m.Workflows))
	for i, w := range m.Workflows {
		base := fmt.Sprintf("workflows[%d]", i)
		slug := WorkflowSlug(w, i)
		switch {
		case !slugPattern.MatchString(slug):
			add(base+".slug", "must be lowercase kebab-case, got %q", slug)
		case workflows[slug]:
			add(base+".slug", "duplicate workflow slug %q", slug)
		}
		workflows[slug] = true
		issues = append(issues, validateWorkflow(base, w, agents)...)
	}

	return issues
}

// IssuesUnder returns the issues whose path starts with prefix.
func IssuesUnder(issues []ValidationIssue, prefix string) []ValidationIssue {
	var out []ValidationIssue
	for _, is := range issues {
		if is.Path == prefix || strings.HasPrefix(is.Path, prefix+".") || strings.HasPrefix(is.Path, prefix+"[") {
			out = append(out, is)
		}
	}
	return out
}

func validateTasks(base string, tasks []Task, agents map[string]bool) []ValidationIssue {
	var issues []ValidationIssue
	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = true
	}

	deps := make(map[string][]string, len(tasks))
	order := make([]string, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		path := fmt.Sprintf("%s.tasks[%d]", base, i)
		if t.ID == "" {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: "id is required"})
			continue
		}
		if seen[t.ID] {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: fmt.Sprintf("duplicate task id %q", t.ID)})
			continue
		}
		seen[t.ID] = true
		if t.AgentID != "" && !agents[t.AgentID] {
			issues = append(issues, ValidationIssue{Path: path + ".agentId", Message: fmt.Sprintf("unknown agent %q", t.AgentID)})
		}
		for j, dep := range t.Dependencies {
			switch {
			case dep == t.ID:
				issues = append(issues, ValidationIssue{Path: fmt.Sprintf("%s.dependencies[%d]", path, j), Message: "task cannot depend on itself"})
			case !ids[dep]:
				issues = append(issues, ValidationIssue{Path: fmt.Sprintf("%s.dependencies[%d]", path, j), Message: fmt.Sprintf("unknown sibling task %q", dep)})
			default:
				deps[t.ID] = append(deps[t.ID], dep)
			}
		}
		order = append(order, t.ID)
	}

	if cyc := findCycle(order, deps); len(cyc) > 0 {
		issues = append(issues, ValidationIssue{Path: base + ".tasks", Message: "dependency cycle: " + strings.Join(cyc, " -> ")})
	}
	return issues
}

func validateWorkflow(base string, w Workflow, agents map[string]bool) []ValidationIssue {
	var issues []ValidationIssue
	ids := make(map[string]bool, len(w.Steps))
	for _, st := range w.Steps {
		ids[st.ID] = true
	}

	deps := make(map[string][]string, len(w.Steps))
	order := make([]string, 0, len(w.Steps))
	seen := make(map[string]bool, len(w.Steps))
	for i, st := range w.Steps {
		path := fmt.Sprintf("%s.steps[%d]", base, i)
		if st.ID == "" {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: "id is required"})
			continue
		}
		if seen[st.ID] {
			issues = append(issues, ValidationIssue{Path: path + ".id", Message: fmt.Sprintf("duplicate step id %q", st.ID)})
		}
		seen[st.ID] = true

		if st.AgentSlug == "" {
			issues = append(issues, ValidationIssue{Path: path + ".agentSlug", Message: "agent is required"})
		} else if !agents[st.AgentSlug] {
			issues = append(issues, ValidationIssue{Path: path + ".agentSlug", Message: fmt.Sprintf("unknown agent %q", st.AgentSlug)})
		}
		for j, dep := range st.DependsOn {
			switch {
			case dep == st.ID:
				issues = append(issues, ValidationIssue{Path: fmt.Sprintf("%s.dependsOn[%d]", path, j), Message: "step cannot depend on itself"})
			case !ids[dep]:
				issues = append(issues, ValidationIssue{Path: fmt.Sprintf("%s.dependsOn[%d]", path, j), Message: fmt.Sprintf("unknown sibling step %q", dep)})
			default:
				deps[st.ID] = append(deps[st.ID], dep)
			}
		}
		order = append(order, st.ID)
	}

	if cyc := findCycle(order, deps); len(cyc) > 0 {
		issues = append(issues, ValidationIssue{Path: base + ".steps", Message: "dependency cycle: " + strings.Join(cyc, " -> ")})
	}
	return issues
}

// findCycle walks nodes in declaration order and returns the first cycle it
// meets, closed with its starting node, or nil when the graph is acyclic.
func findCycle(order []string, deps map[string][]string) []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(order))
	var stack []string

	var visit func(n string) []string
	visit = func(n string) []string {
		color[n] = gray
		stack = append(stack, n)
		for _, d := range deps[n] {
			switch color[d] {
			case gray:
				start := slices.Index(stack, d)
				cyc := slices.Clone(stack[start:])
				return append(cyc, d)
			case white:
				if cyc := visit(d); cyc != nil {
					return cyc
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return nil
	}

	for _, n := range order {
		if color[n] == white {
			if cyc := visit(n); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}
