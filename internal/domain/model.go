package domain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrEmptySlug     = errors.New("slug is required")
	ErrDuplicateSlug = errors.New("slug already exists")
	ErrNotFound      = errors.New("not found")
)

// Model is the complete project description the generator, diagram and
// wizard operate on. Transition methods return a new Model and leave the
// receiver untouched.
type Model struct {
	Project      Project       `json:"project" yaml:"project"`
	Agents       []Agent       `json:"agents" yaml:"agents"`
	Squads       []Squad       `json:"squads" yaml:"squads"`
	Workflows    []Workflow    `json:"workflows" yaml:"workflows"`
	Integrations []Integration `json:"integrations,omitempty" yaml:"integrations,omitempty"`
}

// NewModel starts an empty model for the given project.
func NewModel(p Project) Model {
	return Model{Project: p}
}

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	out := Model{Project: m.Project}
	if m.Agents != nil {
		out.Agents = make([]Agent, len(m.Agents))
		for i, a := range m.Agents {
			out.Agents[i] = a.Clone()
		}
	}
	if m.Squads != nil {
		out.Squads = make([]Squad, len(m.Squads))
		for i, s := range m.Squads {
			out.Squads[i] = s.Clone()
		}
	}
	out.Workflows = cloneWorkflows(m.Workflows)
	if m.Integrations != nil {
		out.Integrations = make([]Integration, len(m.Integrations))
		for i, in := range m.Integrations {
			out.Integrations[i] = in.clone()
		}
	}
	return out
}

// WithProject replaces the project settings.
func (m Model) WithProject(p Project) Model {
	out := m.Clone()
	out.Project = p
	return out
}

// Agent returns the agent with the given slug.
func (m Model) Agent(slug string) (Agent, bool) {
	for _, a := range m.Agents {
		if a.Slug == slug {
			return a, true
		}
	}
	return Agent{}, false
}

// HasAgent reports whether an agent with the given slug exists.
func (m Model) HasAgent(slug string) bool {
	_, ok := m.Agent(slug)
	return ok
}

// Squad returns the squad with the given slug.
func (m Model) Squad(slug string) (Squad, bool) {
	for _, s := range m.Squads {
		if s.Slug == slug {
			return s, true
		}
	}
	return Squad{}, false
}

// AddAgent appends an agent. The slug must be non-empty and unused.
func (m Model) AddAgent(a Agent) (Model, error) {
	if a.Slug == "" {
		return m, ErrEmptySlug
	}
	if m.HasAgent(a.Slug) {
		return m, fmt.Errorf("agent %q: %w", a.Slug, ErrDuplicateSlug)
	}
	out := m.Clone()
	out.Agents = append(out.Agents, a.Clone())
	return out, nil
}

// UpdateAgent replaces the agent identified by slug. When the replacement
// carries a different slug, squad memberships, task owners and workflow
// steps are rewritten to the new slug.
func (m Model) UpdateAgent(slug string, a Agent) (Model, error) {
	if a.Slug == "" {
		return m, ErrEmptySlug
	}
	idx := slices.IndexFunc(m.Agents, func(x Agent) bool { return x.Slug == slug })
	if idx < 0 {
		return m, fmt.Errorf("agent %q: %w", slug, ErrNotFound)
	}
	if a.Slug != slug && m.HasAgent(a.Slug) {
		return m, fmt.Errorf("agent %q: %w", a.Slug, ErrDuplicateSlug)
	}

	out := m.Clone()
	out.Agents[idx] = a.Clone()
	if a.Slug != slug {
		out.renameAgent(slug, a.Slug)
	}
	return out, nil
}

// RemoveAgent deletes an agent and drops it from every squad membership.
// Workflow steps that still name the agent are left for Validate to report.
func (m Model) RemoveAgent(slug string) (Model, error) {
	if !m.HasAgent(slug) {
		return m, fmt.Errorf("agent %q: %w", slug, ErrNotFound)
	}
	out := m.Clone()
	out.Agents = slices.DeleteFunc(out.Agents, func(a Agent) bool { return a.Slug == slug })
	for i := range out.Squads {
		out.Squads[i].AgentIDs = slices.DeleteFunc(out.Squads[i].AgentIDs, func(id string) bool { return id == slug })
	}
	return out, nil
}

// AddSquad appends a squad. The slug must be non-empty and unused.
func (m Model) AddSquad(s Squad) (Model, error) {
	if s.Slug == "" {
		return m, ErrEmptySlug
	}
	if _, ok := m.Squad(s.Slug); ok {
		return m, fmt.Errorf("squad %q: %w", s.Slug, ErrDuplicateSlug)
	}
	out := m.Clone()
	out.Squads = append(out.Squads, s.Clone())
	return out, nil
}

// UpdateSquad replaces the squad identified by slug.
func (m Model) UpdateSquad(slug string, s Squad) (Model, error) {
	if s.Slug == "" {
		return m, ErrEmptySlug
	}
	idx := slices.IndexFunc(m.Squads, func(x Squad) bool { return x.Slug == slug })
	if idx < 0 {
		return m, fmt.Errorf("squad %q: %w", slug, ErrNotFound)
	}
	if s.Slug != slug {
		if _, ok := m.Squad(s.Slug); ok {
			return m, fmt.Errorf("squad %q: %w", s.Slug, ErrDuplicateSlug)
		}
	}
	out := m.Clone()
	out.Squads[idx] = s.Clone()
	return out, nil
}

// RemoveSquad deletes the squad identified by slug.
func (m Model) RemoveSquad(slug string) (Model, error) {
	if _, ok := m.Squad(slug); !ok {
		return m, fmt.Errorf("squad %q: %w", slug, ErrNotFound)
	}
	out := m.Clone()
	out.Squads = slices.DeleteFunc(out.Squads, func(s Squad) bool { return s.Slug == slug })
	return out, nil
}

// AddWorkflow appends a project workflow, assigning an ID when it has none.
func (m Model) AddWorkflow(w Workflow) Model {
	out := m.Clone()
	w = cloneWorkflows([]Workflow{w})[0]
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	out.Workflows = append(out.Workflows, w)
	return out
}

// RemoveWorkflow deletes the project workflow with the given ID.
func (m Model) RemoveWorkflow(id string) (Model, error) {
	if !slices.ContainsFunc(m.Workflows, func(w Workflow) bool { return w.ID == id }) {
		return m, fmt.Errorf("workflow %q: %w", id, ErrNotFound)
	}
	out := m.Clone()
	out.Workflows = slices.DeleteFunc(out.Workflows, func(w Workflow) bool { return w.ID == id })
	return out, nil
}

// SetIntegrations replaces the integration list.
func (m Model) SetIntegrations(list []Integration) Model {
	out := m.Clone()
	out.Integrations = nil
	for _, in := range list {
		out.Integrations = append(out.Integrations, in.clone())
	}
	return out
}

func (m *Model) renameAgent(from, to string) {
	rename := func(ids []string) {
		for i, id := range ids {
			if id == from {
				ids[i] = to
			}
		}
	}
	renameSteps := func(wfs []Workflow) {
		for i := range wfs {
			for j := range wfs[i].Steps {
				if wfs[i].Steps[j].AgentSlug == from {
					wfs[i].Steps[j].AgentSlug = to
				}
			}
		}
	}

	for i := range m.Squads {
		rename(m.Squads[i].AgentIDs)
		for j := range m.Squads[i].Tasks {
			if m.Squads[i].Tasks[j].AgentID == from {
				m.Squads[i].Tasks[j].AgentID = to
			}
		}
		renameSteps(m.Squads[i].Workflows)
	}
	renameSteps(m.Workflows)
}

// Clone returns a copy of a that shares no slices with it.
func (a Agent) Clone() Agent {
	a.Commands = slices.Clone(a.Commands)
	a.Tools = slices.Clone(a.Tools)
	a.Skills = slices.Clone(a.Skills)
	a.Memory = slices.Clone(a.Memory)
	return a
}

// Clone returns a deep copy of s.
func (s Squad) Clone() Squad {
	s.AgentIDs = slices.Clone(s.AgentIDs)
	if s.Tasks != nil {
		tasks := make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			t.Dependencies = slices.Clone(t.Dependencies)
			t.Checklist = slices.Clone(t.Checklist)
			tasks[i] = t
		}
		s.Tasks = tasks
	}
	s.Workflows = cloneWorkflows(s.Workflows)
	return s
}

func (in Integration) clone() Integration {
	if in.Settings != nil {
		settings := make(map[string]string, len(in.Settings))
		for k, v := range in.Settings {
			settings[k] = v
		}
		in.Settings = settings
	}
	return in
}

func cloneWorkflows(wfs []Workflow) []Workflow {
	if wfs == nil {
		return nil
	}
	out := make([]Workflow, len(wfs))
	for i, w := range wfs {
		if w.Steps != nil {
			steps := make([]WorkflowStep, len(w.Steps))
			for j, st := range w.Steps {
				st.DependsOn = slices.Clone(st.DependsOn)
				steps[j] = st
			}
			w.Steps = steps
		}
		out[i] = w
	}
	return out
}
