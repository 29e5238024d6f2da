package jazz

import "github.com/glissade/rcol/pkg/rcol"

// ---------------------------------------------------------------------------
// ActorDefinition
// ---------------------------------------------------------------------------

// ActorDefinition names one participant of the machine. Playback
// nodes point at it by chunk reference.
type ActorDefinition struct {
	Version  uint32
	NameHash uint32
	Unknown1 uint32
}

// NewActorDefinition returns an actor definition at the current
// version.
func NewActorDefinition() *ActorDefinition {
	return &ActorDefinition{Version: verActorDefinition}
}

func (a *ActorDefinition) Tag() string    { return TagActorDefinition }
func (a *ActorDefinition) TypeID() uint32 { return TypeIDActorDefinition }

func (a *ActorDefinition) References() []rcol.ChunkRef { return nil }

func decodeActorDefinition(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagActorDefinition); err != nil {
		return nil, err
	}
	a := &ActorDefinition{}
	var err error
	if a.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if a.NameHash, err = r.U32(); err != nil {
		return nil, err
	}
	if a.Unknown1, err = r.U32(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ActorDefinition) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagActorDefinition); err != nil {
		return nil, err
	}
	w.U32(a.Version)
	w.U32(a.NameHash)
	w.U32(a.Unknown1)
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// ParameterDefinition
// ---------------------------------------------------------------------------

// ParameterDefinition declares one tunable input of the machine with
// its default value. Select-on-parameter nodes branch on it.
type ParameterDefinition struct {
	Version      uint32
	NameHash     uint32
	DefaultValue uint32
}

// NewParameterDefinition returns a parameter definition at the
// current version.
func NewParameterDefinition() *ParameterDefinition {
	return &ParameterDefinition{Version: verParameterDefinition}
}

func (p *ParameterDefinition) Tag() string    { return TagParameterDefinition }
func (p *ParameterDefinition) TypeID() uint32 { return TypeIDParameterDefinition }

func (p *ParameterDefinition) References() []rcol.ChunkRef { return nil }

func decodeParameterDefinition(payload []byte) (rcol.Block, error) {
	r := rcol.NewReader(payload)
	if err := r.ExpectTag(TagParameterDefinition); err != nil {
		return nil, err
	}
	p := &ParameterDefinition{}
	var err error
	if p.Version, err = r.U32(); err != nil {
		return nil, err
	}
	if p.NameHash, err = r.U32(); err != nil {
		return nil, err
	}
	if p.DefaultValue, err = r.U32(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ParameterDefinition) Encode() ([]byte, error) {
	w := rcol.NewWriter()
	if err := w.Tag(TagParameterDefinition); err != nil {
		return nil, err
	}
	w.U32(p.Version)
	w.U32(p.NameHash)
	w.U32(p.DefaultValue)
	return w.Bytes(), nil
}
