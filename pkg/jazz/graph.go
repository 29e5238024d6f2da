package jazz

import (
	"sort"

	"github.com/glissade/rcol/pkg/rcol"
)

// GraphReport describes the reference structure of one container's
// state-machine graph: which chunks each root reaches and which
// family chunks nothing reaches. Orphans are advisory, wasted space
// or an authoring slip rather than a format violation.
type GraphReport struct {
	// Roots holds the index of every StateMachine chunk, ascending.
	Roots []int
	// Reachable is the union of all roots' reachable sets.
	Reachable map[int]struct{}
	// ByRoot maps each root index to its sorted reachable member
	// indices, the root itself included.
	ByRoot map[int][]int
	// Orphans lists family chunks outside Reachable, ascending.
	// Chunks of unknown kinds are never reported; nothing can be said
	// about their reachability.
	Orphans []int
}

// IsReachable reports whether chunk index i is reachable from any
// root.
func (g *GraphReport) IsReachable(i int) bool {
	_, ok := g.Reachable[i]
	return ok
}

// ReachableChunks returns the union reachable set as sorted indices.
func (g *GraphReport) ReachableChunks() []int {
	out := make([]int, 0, len(g.Reachable))
	for i := range g.Reachable {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Analyze computes reachability over c's decoded chunks. Every
// StateMachine chunk is a root; traversal follows outbound edges only
// and tolerates null or out-of-range references by skipping them
// (ValidateReferences is the place that flags those). Each orphan is
// also recorded on c as a diagnostic. A container with no
// StateMachine chunk yields an empty report: without a root set
// there is no basis for calling anything an orphan.
func Analyze(c *rcol.Container) *GraphReport {
	g := &GraphReport{
		Reachable: make(map[int]struct{}),
		ByRoot:    make(map[int][]int),
	}
	total := c.NumChunks()
	for i := 0; i < total; i++ {
		if _, ok := c.ChunkAt(i).Block.(*StateMachine); ok {
			g.Roots = append(g.Roots, i)
		}
	}
	if len(g.Roots) == 0 {
		return g
	}

	for _, root := range g.Roots {
		members := reachFrom(c, root)
		sorted := make([]int, 0, len(members))
		for i := range members {
			g.Reachable[i] = struct{}{}
			sorted = append(sorted, i)
		}
		sort.Ints(sorted)
		g.ByRoot[root] = sorted
	}

	for i := 0; i < total; i++ {
		ch := c.ChunkAt(i)
		if !familyBlock(ch.Block) {
			continue
		}
		if _, ok := g.Reachable[i]; !ok {
			g.Orphans = append(g.Orphans, i)
			c.Diagnostics = append(c.Diagnostics, rcol.Diagnostic{
				Chunk:   i,
				Tag:     ch.Tag,
				Kind:    rcol.DiagOrphanChunk,
				Message: "not reachable from any state machine root",
			})
		}
	}
	return g
}

// reachFrom walks outbound edges from root with an explicit stack and
// returns the set of visited chunk indices.
func reachFrom(c *rcol.Container, root int) map[int]struct{} {
	out := make(map[int]struct{})
	total := c.NumChunks()
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i < 0 || i >= total {
			continue
		}
		if _, ok := out[i]; ok {
			continue
		}
		out[i] = struct{}{}

		for _, ref := range OutboundRefs(c.ChunkAt(i).Block) {
			if ref.IsNull() {
				continue
			}
			stack = append(stack, int(ref))
		}
	}
	return out
}

// OutboundRefs returns the edges graph traversal follows for one
// block. Unlike the Referencer view it excludes a DecisionGraph's
// inbound list, which records who points here rather than where to go
// next. Blocks outside this package's family have no edges.
func OutboundRefs(b rcol.Block) []rcol.ChunkRef {
	switch n := b.(type) {
	case *StateMachine:
		return n.References()
	case *State:
		return n.References()
	case *DecisionGraph:
		return n.Outbound
	case *PlayAnimationNode:
		return n.References()
	case *StopAnimationNode:
		return n.References()
	case *NextStateNode:
		return n.References()
	case *RandomNode:
		return n.References()
	case *SelectOnParameterNode:
		return n.References()
	case *SelectOnDestinationNode:
		return n.References()
	case *CreatePropNode:
		return n.References()
	case *ActorOperationNode:
		return n.References()
	default:
		return nil
	}
}

// familyBlock reports whether b is one of this package's kinds.
func familyBlock(b rcol.Block) bool {
	switch b.(type) {
	case *StateMachine, *State, *DecisionGraph,
		*ActorDefinition, *ParameterDefinition,
		*PlayAnimationNode, *StopAnimationNode, *NextStateNode,
		*RandomNode, *SelectOnParameterNode, *SelectOnDestinationNode,
		*CreatePropNode, *ActorOperationNode:
		return true
	default:
		return false
	}
}
