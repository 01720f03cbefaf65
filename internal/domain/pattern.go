package domain

// Pattern is the orchestration topology the generated runtime wires agents into.
type Pattern string

const (
	PatternSequentialPipeline Pattern = "sequential_pipeline"
	PatternParallelSwarm      Pattern = "parallel_swarm"
	PatternHierarchical       Pattern = "hierarchical"
	PatternWatchdog           Pattern = "watchdog"
	PatternCollaborative      Pattern = "collaborative"
	PatternTaskFirst          Pattern = "task_first"
)

// DefaultPattern is used when a project does not pick one.
const DefaultPattern = PatternSequentialPipeline

var patternInfo = map[Pattern]struct {
	title string
	desc  string
}{
	PatternSequentialPipeline: {
		title: "Sequential Pipeline",
		desc:  "Agents run one after another; each agent receives the previous agent's output as its input.",
	},
	PatternParallelSwarm: {
		title: "Parallel Swarm",
		desc:  "All agents receive the same input at once and their outputs are merged by the orchestrator.",
	},
	PatternHierarchical: {
		title: "Hierarchical",
		desc:  "A lead agent plans the work and delegates sub-tasks to the remaining agents, then consolidates their results.",
	},
	PatternWatchdog: {
		title: "Watchdog",
		desc:  "Worker agents produce output while a supervising agent reviews each result and requests a retry when it is rejected.",
	},
	PatternCollaborative: {
		title: "Collaborative",
		desc:  "Agents take turns refining a shared draft over several rounds until the draft stops changing or the round limit is reached.",
	},
	PatternTaskFirst: {
		title: "Task First",
		desc:  "Work is decomposed into tasks with dependencies; each task is dispatched to its assigned agent once its dependencies complete.",
	},
}

// Patterns returns every supported pattern in display order.
func Patterns() []Pattern {
	return []Pattern{
		PatternSequentialPipeline,
		PatternParallelSwarm,
		PatternHierarchical,
		PatternWatchdog,
		PatternCollaborative,
		PatternTaskFirst,
	}
}

// Valid reports whether p is one of the supported patterns.
func (p Pattern) Valid() bool {
	_, ok := patternInfo[p]
	return ok
}

// OrDefault returns p, or DefaultPattern when p is empty or unknown.
func (p Pattern) OrDefault() Pattern {
	if p.Valid() {
		return p
	}
	return DefaultPattern
}

// Title returns the human-readable name of the pattern.
func (p Pattern) Title() string {
	if info, ok := patternInfo[p]; ok {
		return info.title
	}
	return string(p)
}

// Describe returns a one-paragraph description of how the pattern executes.
func (p Pattern) Describe() string {
	return patternInfo[p].desc
}
