package jazz

import (
	"fmt"

	"github.com/glissade/rcol/pkg/rcol"
	"github.com/glissade/rcol/pkg/resource"
)

// ---------------------------------------------------------------------------
// CreatePropNode
// ---------------------------------------------------------------------------

// CreatePropNode spawns a prop, identified by an external resource
// key, for an actor to use.
type CreatePropNode struct {
	Version  uint32
	Actor    rcol.ChunkRef
	Prop     resource.Key
	Unknown1 uint32
	Unknown2 uint32
	Unknown3 uint32
	Next     []rcol.ChunkRef
}

// NewCreatePropNode returns a prop node at the current version with
// no actor attached.
func NewCreatePropNode() *CreatePropNode {
	return &CreatePropNode{Version: verCreateProp, Actor: rcol.NullRef}
}

func (n *CreatePropNode) Tag() string    { return TagCreateProp }
func (n *CreatePropNode) TypeID() uint32 { return TypeIDCreateProp }

func (n *CreatePropNode) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, 1+len(n.Next))
	out = append(out, n.Actor)
	return append(out, n.Next...)
}

func decodeCreateProp(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagCreateProp); err != nil {
		return nil, err
	}
	n := &CreatePropNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Actor, err = r.Ref(); err != nil {
		return nil, err
	}
	if n.Prop, err = r.Key(resource.OrderITG); err != nil {
		return nil, fmt.Errorf("prop key: %w", err)
	}
	if n.Unknown1, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown2, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown3, err = r.U32(); err != nil {
		return nil, err
	}
	if err := r.Sentinel(rcol.SentinelAlign); err != nil {
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

func (n *CreatePropNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagCreateProp); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.Ref(n.Actor)
	w.Key(n.Prop, resource.OrderITG)
	w.U32(n.Unknown1)
	w.U32(n.Unknown2)
	w.U32(n.Unknown3)
	w.Sentinel(rcol.SentinelAlign)
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// ActorOperationNode
// ---------------------------------------------------------------------------

// Operation selects what an ActorOperationNode does to its actor.
type Operation uint32

// OperationSetMirror toggles the actor's mirroring; the operand is
// the boolean value. The only operation observed in sample material.
const OperationSetMirror Operation = 0

// ActorOperationNode applies an operation to an actor mid-graph.
type ActorOperationNode struct {
	Version   uint32
	Actor     rcol.ChunkRef
	Operation Operation
	Operand   uint32
	Unknown1  uint32
	Unknown2  uint32
	Next      []rcol.ChunkRef
}

// NewActorOperationNode returns an operation node at the current
// version with no actor attached.
func NewActorOperationNode() *ActorOperationNode {
	return &ActorOperationNode{Version: verActorOperation, Actor: rcol.NullRef}
}

func (n *ActorOperationNode) Tag() string    { return TagActorOperation }
func (n *ActorOperationNode) TypeID() uint32 { return TypeIDActorOperation }

func (n *ActorOperationNode) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, 1+len(n.Next))
	out = append(out, n.Actor)
	return append(out, n.Next...)
}

func decodeActorOperation(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagActorOperation); err != nil {
		return nil, err
	}
	n := &ActorOperationNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Actor, err = r.Ref(); err != nil {
		return nil, err
	}
	op, err := r.U32()
	if err != nil {
		return nil, err
	}
	n.Operation = Operation(op)
	if n.Operand, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown1, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown2, err = r.U32(); err != nil {
		return nil, err
	}
	if err := r.Sentinel(rcol.SentinelAlign); err != nil {
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

func (n *ActorOperationNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagActorOperation); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.Ref(n.Actor)
	w.U32(uint32(n.Operation))
	w.U32(n.Operand)
	w.U32(n.Unknown1)
	w.U32(n.Unknown2)
	w.Sentinel(rcol.SentinelAlign)
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}
