package jazz

import (
	"fmt"

	"github.com/glissade/rcol/pkg/rcol"
)

// ---------------------------------------------------------------------------
// NextStateNode
// ---------------------------------------------------------------------------

// NextStateNode hands control to another state. It is the one
// terminal node kind: no trailing edge list, no close marker.
type NextStateNode struct {
	Version uint32
	State   rcol.ChunkRef
}

// NewNextStateNode returns a transition node at the current version
// with no target state.
func NewNextStateNode() *NextStateNode {
	return &NextStateNode{Version: verNextState, State: rcol.NullRef}
}

func (n *NextStateNode) Tag() string    { return TagNextState }
func (n *NextStateNode) TypeID() uint32 { return TypeIDNextState }

func (n *NextStateNode) References() []rcol.ChunkRef {
	return []rcol.ChunkRef{n.State}
}

func decodeNextState(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagNextState); err != nil {
		return nil, err
	}
	n := &NextStateNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.State, err = r.Ref(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *NextStateNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagNextState); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.Ref(n.State)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// RandomNode
// ---------------------------------------------------------------------------

// RandomNode picks one outcome by weight and continues along its edge
// list.
type RandomNode struct {
	Version  uint32
	Outcomes []RandomOutcome
	Flags    uint32
	Next     []rcol.ChunkRef
}

// RandomOutcome is one weighted branch of a RandomNode.
type RandomOutcome struct {
	Weight float32
	Next   []rcol.ChunkRef
}

// NewRandomNode returns a random node at the current version with no
// outcomes.
func NewRandomNode() *RandomNode {
	return &RandomNode{Version: verRandom}
}

func (n *RandomNode) Tag() string    { return TagRandom }
func (n *RandomNode) TypeID() uint32 { return TypeIDRandom }

func (n *RandomNode) References() []rcol.ChunkRef {
	var out []rcol.ChunkRef
	for _, o := range n.Outcomes {
		out = append(out, o.Next...)
	}
	return append(out, n.Next...)
}

func decodeRandom(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagRandom); err != nil {
		return nil, err
	}
	n := &RandomNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	count, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("outcome list: %w", err)
	}
	n.Outcomes = make([]RandomOutcome, count)
	for i := range n.Outcomes {
		o := &n.Outcomes[i]
		if o.Weight, err = r.F32(); err != nil {
			return nil, fmt.Errorf("outcome %d: %w", i, err)
		}
		if o.Next, err = r.RefList(); err != nil {
			return nil, fmt.Errorf("outcome %d: %w", i, err)
		}
	}
	if n.Flags, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Next, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("next list: %w", err)
	}
	if err := r.Sentinel(rcol.SentinelCloseGraph); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *RandomNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagRandom); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	if len(n.Outcomes) > rcol.MaxCount {
		return nil, fmt.Errorf("%d outcomes exceed ceiling %d", len(n.Outcomes), rcol.MaxCount)
	}
	w.U32(uint32(len(n.Outcomes)))
	for _, o := range n.Outcomes {
		w.F32(o.Weight)
		if err := w.RefList(o.Next); err != nil {
			return nil, err
		}
	}
	w.U32(n.Flags)
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// SelectOnParameterNode
// ---------------------------------------------------------------------------

// SelectOnParameterNode branches on a parameter's value: the first
// match whose test value equals it wins, otherwise the node's own
// edge list continues the graph.
type SelectOnParameterNode struct {
	Version   uint32
	Parameter rcol.ChunkRef
	Matches   []ParameterMatch
	Next      []rcol.ChunkRef
}

// ParameterMatch is one branch of a SelectOnParameterNode.
type ParameterMatch struct {
	TestValue uint32
	Next      []rcol.ChunkRef
}

// NewSelectOnParameterNode returns a select node at the current
// version with no parameter attached.
func NewSelectOnParameterNode() *SelectOnParameterNode {
	return &SelectOnParameterNode{Version: verSelectOnParameter, Parameter: rcol.NullRef}
}

func (n *SelectOnParameterNode) Tag() string    { return TagSelectOnParameter }
func (n *SelectOnParameterNode) TypeID() uint32 { return TypeIDSelectOnParameter }

func (n *SelectOnParameterNode) References() []rcol.ChunkRef {
	out := []rcol.ChunkRef{n.Parameter}
	for _, m := range n.Matches {
		out = append(out, m.Next...)
	}
	return append(out, n.Next...)
}

func decodeSelectOnParameter(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagSelectOnParameter); err != nil {
		return nil, err
	}
	n := &SelectOnParameterNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Parameter, err = r.Ref(); err != nil {
		return nil, err
	}
	count, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("match list: %w", err)
	}
	n.Matches = make([]ParameterMatch, count)
	for i := range n.Matches {
		m := &n.Matches[i]
		if m.TestValue, err = r.U32(); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		if m.Next, err = r.RefList(); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
	}
	if n.Next, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("next list: %w", err)
	}
	if err := r.Sentinel(rcol.SentinelCloseGraph); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *SelectOnParameterNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagSelectOnParameter); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.Ref(n.Parameter)
	if len(n.Matches) > rcol.MaxCount {
		return nil, fmt.Errorf("%d matches exceed ceiling %d", len(n.Matches), rcol.MaxCount)
	}
	w.U32(uint32(len(n.Matches)))
	for _, m := range n.Matches {
		w.U32(m.TestValue)
		if err := w.RefList(m.Next); err != nil {
			return nil, err
		}
	}
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// SelectOnDestinationNode
// ---------------------------------------------------------------------------

// SelectOnDestinationNode branches on the state the machine is
// heading to.
type SelectOnDestinationNode struct {
	Version uint32
	Matches []DestinationMatch
	Next    []rcol.ChunkRef
}

// DestinationMatch is one branch of a SelectOnDestinationNode, keyed
// by a State chunk.
type DestinationMatch struct {
	State rcol.ChunkRef
	Next  []rcol.ChunkRef
}

// NewSelectOnDestinationNode returns a select node at the current
// version with no matches.
func NewSelectOnDestinationNode() *SelectOnDestinationNode {
	return &SelectOnDestinationNode{Version: verSelectOnDestination}
}

func (n *SelectOnDestinationNode) Tag() string    { return TagSelectOnDestination }
func (n *SelectOnDestinationNode) TypeID() uint32 { return TypeIDSelectOnDestination }

func (n *SelectOnDestinationNode) References() []rcol.ChunkRef {
	var out []rcol.ChunkRef
	for _, m := range n.Matches {
		out = append(out, m.State)
		out = append(out, m.Next...)
	}
	return append(out, n.Next...)
}

func decodeSelectOnDestination(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagSelectOnDestination); err != nil {
		return nil, err
	}
	n := &SelectOnDestinationNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	count, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("match list: %w", err)
	}
	n.Matches = make([]DestinationMatch, count)
	for i := range n.Matches {
		m := &n.Matches[i]
		if m.State, err = r.Ref(); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		if m.Next, err = r.RefList(); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
	}
	if n.Next, err = r.RefList(); err != nil {
		return nil, fmt.Errorf("next list: %w", err)
	}
	if err := r.Sentinel(rcol.SentinelCloseGraph); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *SelectOnDestinationNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagSelectOnDestination); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	if len(n.Matches) > rcol.MaxCount {
		return nil, fmt.Errorf("%d matches exceed ceiling %d", len(n.Matches), rcol.MaxCount)
	}
	w.U32(uint32(len(n.Matches)))
	for _, m := range n.Matches {
		w.Ref(m.State)
		if err := w.RefList(m.Next); err != nil {
			return nil, err
		}
	}
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}
