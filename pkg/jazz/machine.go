package jazz

import (
	"fmt"

	"github.com/glissade/rcol/pkg/rcol"
)

// ---------------------------------------------------------------------------
// StateMachine
// ---------------------------------------------------------------------------

// StateMachine is the graph's root chunk. Its three index lists (actor
// definitions, parameter definitions, states) are the entry points
// everything else must be reachable from.
type StateMachine struct {
	Version            uint32
	NameHash           uint32
	Actors             []rcol.ChunkRef
	Parameters         []rcol.ChunkRef
	States             []rcol.ChunkRef
	Animations         []AnimationEntry
	Flags              uint32
	AutomationPriority uint32
	Unknown2           uint32
	Unknown3           uint32
}

// AnimationEntry names one animation and the two actors it involves,
// all as 32-bit name hashes.
type AnimationEntry struct {
	NameHash uint32
	Actor1   uint32
	Actor2   uint32
}

// NewStateMachine returns an empty state machine at the current
// version.
func NewStateMachine() *StateMachine {
	return &StateMachine{Version: verStateMachine}
}

func (sm *StateMachine) Tag() string    { return TagStateMachine }
func (sm *StateMachine) TypeID() uint32 { return TypeIDStateMachine }

// References lists every chunk reference in layout order: actors,
// parameters, states.
func (sm *StateMachine) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, len(sm.Actors)+len(sm.Parameters)+len(sm.States))
	out = append(out, sm.Actors...)
	out = append(out, sm.Parameters...)
	return append(out, sm.States...)
}

func decodeStateMachine(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagStateMachine); err != nil {
		return nil, err
	}
	sm := &StateMachine{}
	var err error
	if sm.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if sm.NameHash, err = r.U32(); err != nil {
		return nil, err
	}
	if sm.Actors, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("actor list: %w", err)
	}
	if sm.Parameters, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("parameter list: %w", err)
	}
	if sm.States, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("state list: %w", err)
	}
	n, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("animation list: %w", err)
	}
	sm.Animations = make([]AnimationEntry, n)
	for i := range sm.Animations {
		e := &sm.Animations[i]
		if e.NameHash, err = r.U32(); err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		if e.Actor1, err = r.U32(); err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		if e.Actor2, err = r.U32(); err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
	}
	if sm.Flags, err = r.U32(); err != nil {
		return nil, err
	}
	if sm.AutomationPriority, err = r.U32(); err != nil {
		return nil, err
	}
	if sm.Unknown2, err = r.U32(); err != nil {
		return nil, err
	}
	if sm.Unknown3, err = r.U32(); err != nil {
		return nil, err
	}
	return sm, nil
}

func (sm *StateMachine) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagStateMachine); err != nil {
		return nil, err
	}
	w.U32(sm.Version)
	w.U32(sm.NameHash)
	if err := w.RefList(sm.Actors); err != nil {
		return nil, err
	}
	if err := w.RefList(sm.Parameters); err != nil {
		return nil, err
	}
	if err := w.RefList(sm.States); err != nil {
		return nil, err
	}
	if len(sm.Animations) > rcol.MaxCount {
		return nil, fmt.Errorf("%d animation entries exceed ceiling %d", len(sm.Animations), rcol.MaxCount)
	}
	w.U32(uint32(len(sm.Animations)))
	for _, e := range sm.Animations {
		w.U32(e.NameHash)
		w.U32(e.Actor1)
		w.U32(e.Actor2)
	}
	w.U32(sm.Flags)
	w.U32(sm.AutomationPriority)
	w.U32(sm.Unknown2)
	w.U32(sm.Unknown3)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is one named state of the machine. Entering it hands control
// to its decision graph; OutboundStates lists the states transitions
// may select, in evaluation order.
type State struct {
	Version               uint32
	NameHash              uint32
	Flags                 uint32
	DecisionGraph         rcol.ChunkRef
	OutboundStates        []rcol.ChunkRef
	AwarenessOverlayLevel uint32
}

// NewState returns a state at the current version with no decision
// graph attached.
func NewState() *State {
	return &State{Version: verState, DecisionGraph: rcol.NullRef}
}

func (s *State) Tag() string    { return TagState }
func (s *State) TypeID() uint32 { return TypeIDState }

func (s *State) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, 1+len(s.OutboundStates))
	out = append(out, s.DecisionGraph)
	return append(out, s.OutboundStates...)
}

func decodeState(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagState); err != nil {
		return nil, err
	}
	s := &State{}
	var err error
	if s.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if s.NameHash, err = r.U32(); err != nil {
		return nil, err
	}
	if s.Flags, err = r.U32(); err != nil {
		return nil, err
	}
	if s.DecisionGraph, err = r.Ref(); err != nil {
		return nil, err
	}
	if s.OutboundStates, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("outbound state list: %w", err)
	}
	if s.AwarenessOverlayLevel, err = r.U32(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *State) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagState); err != nil {
		return nil, err
	}
	w.U32(s.Version)
	w.U32(s.NameHash)
	w.U32(s.Flags)
	w.Ref(s.DecisionGraph)
	if err := w.RefList(s.OutboundStates); err != nil {
		return nil, err
	}
	w.U32(s.AwarenessOverlayLevel)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// DecisionGraph
// ---------------------------------------------------------------------------

// DecisionGraph chains the decision nodes a state runs through.
// Outbound is the edge list traversal follows; Inbound is bookkeeping
// recorded by the authoring tool and is not an edge of the graph.
type DecisionGraph struct {
	Version  uint32
	Unknown1 uint32
	Outbound []rcol.ChunkRef
	Inbound  []rcol.ChunkRef
}

// NewDecisionGraph returns an empty decision graph at the current
// version.
func NewDecisionGraph() *DecisionGraph {
	return &DecisionGraph{Version: verDecisionGraph}
}

func (dg *DecisionGraph) Tag() string    { return TagDecisionGraph }
func (dg *DecisionGraph) TypeID() uint32 { return TypeIDDecisionGraph }

func (dg *DecisionGraph) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, len(dg.Outbound)+len(dg.Inbound))
	out = append(out, dg.Outbound...)
	return append(out, dg.Inbound...)
}

func decodeDecisionGraph(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagDecisionGraph); err != nil {
		return nil, err
	}
	dg := &DecisionGraph{}
	var err error
	if dg.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if dg.Unknown1, err = r.U32(); err != nil {
		return nil, err
	}
	if dg.Outbound, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("outbound list: %w", err)
	}
	if dg.Inbound, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("inbound list: %w", err)
	}
	if err := r.Sentinel(rcol.SentinelAlign); err != nil {
		return nil, err
	}
	return dg, nil
}

func (dg *DecisionGraph) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagDecisionGraph); err != nil {
		return nil, err
	}
	w.U32(dg.Version)
	w.U32(dg.Unknown1)
	if err := w.RefList(dg.Outbound); err != nil {
		return nil, err
	}
	if err := w.RefList(dg.Inbound); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelAlign)
	return w.Bytes(), nil
}
