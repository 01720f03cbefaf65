// Package diagram derives the orchestrator → agents → squads graph of a
// project model. The graph is recomputed from scratch on every call.
package diagram

import (
	"github.com/soyeahso/aiosforge/internal/domain"
)

// NodeKind identifies the tier a node belongs to.
type NodeKind string

const (
	NodeOrchestrator NodeKind = "orchestrator"
	NodeAgent        NodeKind = "agent"
	NodeSquad        NodeKind = "squad"
)

// EdgeKind identifies why two nodes are connected.
type EdgeKind string

const (
	EdgeControl    EdgeKind = "control"
	EdgeMembership EdgeKind = "membership"
	EdgeWorkflow   EdgeKind = "workflow"
)

// Layout constants, in canvas units.
const (
	AgentSpacing = 220
	SquadSpacing = 260
	TierHeight   = 180
)

// OrchestratorID is the node ID of the single orchestrator node.
const OrchestratorID = "orchestrator"

// Position is a node's top-left canvas coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is a vertex of the diagram.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Label    string   `json:"label"`
	Detail   string   `json:"detail,omitempty"`
	Position Position `json:"position"`
}

// Edge connects two nodes by ID.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Label  string   `json:"label,omitempty"`
}

// Graph is the rendered diagram.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// AgentNodeID returns the node ID used for an agent slug.
func AgentNodeID(slug string) string { return "agent-" + slug }

// SquadNodeID returns the node ID used for a squad slug.
func SquadNodeID(slug string) string { return "squad-" + slug }

// Build derives the graph for m. Agents are laid out left to right in
// insertion order and squads below them. A sequential pipeline chains the
// agents behind the orchestrator; every other pattern fans out from it.
func Build(m domain.Model) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	pattern := m.Project.Pattern.OrDefault()

	name := m.Project.Name
	if name == "" {
		name = "Orchestrator"
	}
	g.Nodes = append(g.Nodes, Node{
		ID:       OrchestratorID,
		Kind:     NodeOrchestrator,
		Label:    name,
		Detail:   pattern.Title(),
		Position: Position{X: centered(len(m.Agents), AgentSpacing), Y: 0},
	})

	for i, a := range m.Agents {
		label := a.Name
		if label == "" {
			label = a.Slug
		}
		g.Nodes = append(g.Nodes, Node{
			ID:       AgentNodeID(a.Slug),
			Kind:     NodeAgent,
			Label:    label,
			Detail:   a.Role,
			Position: Position{X: i * AgentSpacing, Y: TierHeight},
		})

		source := OrchestratorID
		if pattern == domain.PatternSequentialPipeline && i > 0 {
			source = AgentNodeID(m.Agents[i-1].Slug)
		}
		g.Edges = append(g.Edges, Edge{
			ID:     "ctl-" + source + "-" + AgentNodeID(a.Slug),
			Source: source,
			Target: AgentNodeID(a.Slug),
			Kind:   EdgeControl,
		})
	}

	offset := centered(len(m.Agents), AgentSpacing) - centered(len(m.Squads), SquadSpacing)
	for i, s := range m.Squads {
		label := s.Name
		if label == "" {
			label = s.Slug
		}
		g.Nodes = append(g.Nodes, Node{
			ID:       SquadNodeID(s.Slug),
			Kind:     NodeSquad,
			Label:    label,
			Position: Position{X: offset + i*SquadSpacing, Y: 2 * TierHeight},
		})
		for _, id := range s.AgentIDs {
			if !m.HasAgent(id) {
				continue
			}
			g.Edges = append(g.Edges, Edge{
				ID:     "mem-" + AgentNodeID(id) + "-" + SquadNodeID(s.Slug),
				Source: AgentNodeID(id),
				Target: SquadNodeID(s.Slug),
				Kind:   EdgeMembership,
			})
		}
	}

	g.Edges = append(g.Edges, workflowEdges(m)...)
	return g
}

// workflowEdges connects the agents of dependent steps. A step without
// declared dependencies follows the step before it. Pairs are emitted once
// per render no matter how many workflows share them.
func workflowEdges(m domain.Model) []Edge {
	type pair struct{ src, dst string }
	seen := map[pair]bool{}
	var edges []Edge

	add := func(wf domain.Workflow) {
		agentOf := make(map[string]string, len(wf.Steps))
		for _, st := range wf.Steps {
			agentOf[st.ID] = st.AgentSlug
		}
		for i, st := range wf.Steps {
			deps := st.DependsOn
			if len(deps) == 0 && i > 0 {
				deps = []string{wf.Steps[i-1].ID}
			}
			for _, dep := range deps {
				src, ok := agentOf[dep]
				if !ok || src == st.AgentSlug || !m.HasAgent(src) || !m.HasAgent(st.AgentSlug) {
					continue
				}
				p := pair{AgentNodeID(src), AgentNodeID(st.AgentSlug)}
				if seen[p] {
					continue
				}
				seen[p] = true
				edges = append(edges, Edge{
					ID:     "wf-" + p.src + "-" + p.dst,
					Source: p.src,
					Target: p.dst,
					Kind:   EdgeWorkflow,
					Label:  wf.Name,
				})
			}
		}
	}

	for _, wf := range m.Workflows {
		add(wf)
	}
	for _, s := range m.Squads {
		for _, wf := range s.Workflows {
			add(wf)
		}
	}
	return edges
}

// centered returns the x offset of the middle of a row of n items.
func centered(n, spacing int) int {
	if n <= 1 {
		return 0
	}
	return (n - 1) * spacing / 2
}
