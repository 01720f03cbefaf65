// Package domain holds the AIOS project model and the transitions that change it.
package domain

// Visibility controls how much of an agent is exposed in generated docs.
type Visibility string

const (
	VisibilityFull  Visibility = "full"
	VisibilityQuick Visibility = "quick"
	VisibilityKey   Visibility = "key"
)

// OrDefault returns v, or VisibilityFull when v is not a known tier.
func (v Visibility) OrDefault() Visibility {
	switch v {
	case VisibilityFull, VisibilityQuick, VisibilityKey:
		return v
	default:
		return VisibilityFull
	}
}

// Project carries the top-level settings chosen in the wizard.
type Project struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Domain      string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Pattern     Pattern `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Agent is a configured LLM persona. Slug is its unique key within a project.
type Agent struct {
	Slug         string        `json:"slug" yaml:"slug"`
	Name         string        `json:"name" yaml:"name"`
	Role         string        `json:"role,omitempty" yaml:"role,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	SystemPrompt string        `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	LLMModel     string        `json:"llmModel,omitempty" yaml:"llmModel,omitempty"`
	Visibility   Visibility    `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Commands     []string      `json:"commands,omitempty" yaml:"commands,omitempty"`
	Tools        []string      `json:"tools,omitempty" yaml:"tools,omitempty"`
	Skills       []string      `json:"skills,omitempty" yaml:"skills,omitempty"`
	Memory       []MemoryEntry `json:"memory,omitempty" yaml:"memory,omitempty"`
	Custom       bool          `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// MemoryEntry is a piece of institutional knowledge seeded into an agent.
type MemoryEntry struct {
	Key     string `json:"key" yaml:"key"`
	Content string `json:"content" yaml:"content"`
}

// Squad groups agents around a set of tasks and squad-local workflows.
type Squad struct {
	Slug        string     `json:"slug" yaml:"slug"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	AgentIDs    []string   `json:"agentIds,omitempty" yaml:"agentIds,omitempty"`
	Tasks       []Task     `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Workflows   []Workflow `json:"workflows,omitempty" yaml:"workflows,omitempty"`
}

// Task is a unit of squad work with dependencies on sibling tasks.
type Task struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	AgentID      string   `json:"agentId,omitempty" yaml:"agentId,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Checklist    []string `json:"checklist,omitempty" yaml:"checklist,omitempty"`
}

// Workflow is an ordered list of steps, each bound to one agent.
type Workflow struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Slug        string         `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []WorkflowStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// WorkflowStep names an agent and optionally depends on sibling steps.
type WorkflowStep struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	AgentSlug   string   `json:"agentSlug" yaml:"agentSlug"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	DependsOn   []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	TaskID      string   `json:"taskId,omitempty" yaml:"taskId,omitempty"`
}

// Integration is an external service the generated system is configured for.
type Integration struct {
	Kind     string            `json:"kind" yaml:"kind"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled  bool              `json:"enabled" yaml:"enabled"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}
