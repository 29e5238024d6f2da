package jazz

import (
	"fmt"
	"math"

	"github.com/glissade/rcol/pkg/rcol"
	"github.com/glissade/rcol/pkg/resource"
)

// ---------------------------------------------------------------------------
// PlayAnimationNode
// ---------------------------------------------------------------------------

// PlayAnimationNode starts a clip on an actor. Clip and TrackMask
// identify resources outside the container; Actor references an
// ActorDefinition chunk inside it.
type PlayAnimationNode struct {
	Version        uint32
	Clip           resource.Key
	TrackMask      resource.Key
	ClipName       string
	Slots          []SlotAssignment
	Flags          uint32
	Priority       uint32
	Unknown1       float32
	BlendIn        float32
	BlendOut       float32
	Unknown2       float32
	Speed          float32
	Actor          rcol.ChunkRef
	TimingPriority uint32
	Unknown3       uint32
	Unknown4       uint32
	Unknown5       uint32
	Next           []rcol.ChunkRef
}

// SlotAssignment binds one slot of the clip to an actor, all fields
// 32-bit name hashes. The containing list keeps a legacy 8-bit count
// on the wire, so a node holds at most 255 assignments.
type SlotAssignment struct {
	ChassisHash uint32
	ActorHash   uint32
	SlotHash    uint32
}

// NewPlayAnimationNode returns a play node at the current version
// with no actor attached.
func NewPlayAnimationNode() *PlayAnimationNode {
	return &PlayAnimationNode{Version: verPlayAnimation, Actor: rcol.NullRef}
}

func (n *PlayAnimationNode) Tag() string    { return TagPlayAnimation }
func (n *PlayAnimationNode) TypeID() uint32 { return TypeIDPlayAnimation }

func (n *PlayAnimationNode) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, 1+len(n.Next))
	out = append(out, n.Actor)
	return append(out, n.Next...)
}

func decodePlayAnimation(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagPlayAnimation); err != nil {
		return nil, err
	}
	n := &PlayAnimationNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Clip, err = r.Key(resource.OrderITG); err != nil {
		return nil, fmt.Errorf("clip key: %w", err)
	}
	if n.TrackMask, err = r.Key(resource.OrderITG); err != nil {
		return nil, fmt.Errorf("track mask key: %w", err)
	}
	if n.ClipName, err = r.String16(); err != nil {
		return nil, fmt.Errorf("clip name: %w", err)
	}
	count, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("slot list: %w", err)
	}
	n.Slots = make([]SlotAssignment, count)
	for i := range n.Slots {
		s := &n.Slots[i]
		if s.ChassisHash, err = r.U32(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if s.ActorHash, err = r.U32(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if s.SlotHash, err = r.U32(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	if n.Flags, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Priority, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown1, err = r.F32(); err != nil {
		return nil, err
	}
	if n.BlendIn, err = r.F32(); err != nil {
		return nil, err
	}
	if n.BlendOut, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Unknown2, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Speed, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Actor, err = r.Ref(); err != nil {
		return nil, err
	}
	if n.TimingPriority, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown3, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown4, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown5, err = r.U32(); err != nil {
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

func (n *PlayAnimationNode) Encode() ([]byte, error) {
	if len(n.Slots) > math.MaxUint8 {
		return nil, fmt.Errorf("%d slot assignments exceed the 8-bit count", len(n.Slots))
	}
	w := rcol.NewWriter()
	if err := w.Tag(TagPlayAnimation); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.Key(n.Clip, resource.OrderITG)
	w.Key(n.TrackMask, resource.OrderITG)
	if err := w.String16(n.ClipName); err != nil {
		return nil, fmt.Errorf("clip name: %w", err)
	}
	w.U8(uint8(len(n.Slots)))
	for _, s := range n.Slots {
		w.U32(s.ChassisHash)
		w.U32(s.ActorHash)
		w.U32(s.SlotHash)
	}
	w.U32(n.Flags)
	w.U32(n.Priority)
	w.F32(n.Unknown1)
	w.F32(n.BlendIn)
	w.F32(n.BlendOut)
	w.F32(n.Unknown2)
	w.F32(n.Speed)
	w.Ref(n.Actor)
	w.U32(n.TimingPriority)
	w.U32(n.Unknown3)
	w.U32(n.Unknown4)
	w.U32(n.Unknown5)
	w.Sentinel(rcol.SentinelAlign)
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// StopAnimationNode
// ---------------------------------------------------------------------------

// StopAnimationNode winds down whatever the actor is playing, with
// the same blend envelope fields as PlayAnimationNode.
type StopAnimationNode struct {
	Version        uint32
	Flags          uint32
	Priority       uint32
	Unknown1       float32
	BlendIn        float32
	BlendOut       float32
	Unknown2       float32
	Speed          float32
	Actor          rcol.ChunkRef
	TimingPriority uint32
	Unknown3       uint32
	Unknown4       uint32
	Next           []rcol.ChunkRef
}

// NewStopAnimationNode returns a stop node at the current version
// with no actor attached.
func NewStopAnimationNode() *StopAnimationNode {
	return &StopAnimationNode{Version: verStopAnimation, Actor: rcol.NullRef}
}

func (n *StopAnimationNode) Tag() string    { return TagStopAnimation }
func (n *StopAnimationNode) TypeID() uint32 { return TypeIDStopAnimation }

func (n *StopAnimationNode) References() []rcol.ChunkRef {
	out := make([]rcol.ChunkRef, 0, 1+len(n.Next))
	out = append(out, n.Actor)
	return append(out, n.Next...)
}

func decodeStopAnimation(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagStopAnimation); err != nil {
		return nil, err
	}
	n := &StopAnimationNode{}
	var err error
	if n.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Flags, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Priority, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown1, err = r.F32(); err != nil {
		return nil, err
	}
	if n.BlendIn, err = r.F32(); err != nil {
		return nil, err
	}
	if n.BlendOut, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Unknown2, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Speed, err = r.F32(); err != nil {
		return nil, err
	}
	if n.Actor, err = r.Ref(); err != nil {
		return nil, err
	}
	if n.TimingPriority, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown3, err = r.U32(); err != nil {
		return nil, err
	}
	if n.Unknown4, err = r.U32(); err != nil {
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

func (n *StopAnimationNode) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagStopAnimation); err != nil {
		return nil, err
	}
	w.U32(n.Version)
	w.U32(n.Flags)
	w.U32(n.Priority)
	w.F32(n.Unknown1)
	w.F32(n.BlendIn)
	w.F32(n.BlendOut)
	w.F32(n.Unknown2)
	w.F32(n.Speed)
	w.Ref(n.Actor)
	w.U32(n.TimingPriority)
	w.U32(n.Unknown3)
	w.U32(n.Unknown4)
	w.Sentinel(rcol.SentinelAlign)
	if err := w.RefList(n.Next); err != nil {
		return nil, err
	}
	w.Sentinel(rcol.SentinelCloseGraph)
	return w.Bytes(), nil
}
