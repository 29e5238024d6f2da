// Package jazz models the animation state-machine chunk family: a
// directed graph of states, decision graphs, and playback nodes stored
// as RCOL chunks that reference each other by chunk index. The package
// decodes and re-encodes every node kind byte-exactly, including
// fields whose meaning is undeciphered, and analyzes the reference
// graph for reachability.
package jazz

import "github.com/glissade/rcol/pkg/rcol"

// Chunk tags, as they appear in the directory and embedded at the
// start of each payload.
const (
	TagStateMachine        = "S_SM"
	TagState               = "S_St"
	TagDecisionGraph       = "S_DG"
	TagActorDefinition     = "S_AD"
	TagParameterDefinition = "S_PD"
	TagPlayAnimation       = "Play"
	TagStopAnimation       = "Stop"
	TagNextState           = "SNSN"
	TagRandom              = "Rand"
	TagSelectOnParameter   = "SoPn"
	TagSelectOnDestination = "SoDn"
	TagCreateProp          = "Prop"
	TagActorOperation      = "AcOp"
)

// Resource type ids paired with the tags above.
const (
	TypeIDStateMachine        uint32 = 0x02D5DF13
	TypeIDState               uint32 = 0x02EEDB18
	TypeIDDecisionGraph       uint32 = 0x02EEDB46
	TypeIDActorDefinition     uint32 = 0x02EEDB5F
	TypeIDParameterDefinition uint32 = 0x02EEDB7F
	TypeIDPlayAnimation       uint32 = 0x02EEDB92
	TypeIDStopAnimation       uint32 = 0x02EEEBDE
	TypeIDNextState           uint32 = 0x02EEDC5E
	TypeIDRandom              uint32 = 0x02EEDBA5
	TypeIDSelectOnParameter   uint32 = 0x02EEDBB6
	TypeIDSelectOnDestination uint32 = 0x02EEDBD9
	TypeIDCreateProp          uint32 = 0x02EEEBDC
	TypeIDActorOperation      uint32 = 0x02EEEBDD
)

// Versions written by the constructors. Decoded versions are
// preserved as read, never rewritten to these.
const (
	verStateMachine        uint32 = 0x0202
	verState               uint32 = 0x0101
	verDecisionGraph       uint32 = 0x0101
	verActorDefinition     uint32 = 0x0100
	verParameterDefinition uint32 = 0x0100
	verPlayAnimation       uint32 = 0x0105
	verStopAnimation       uint32 = 0x0104
	verNextState           uint32 = 0x0101
	verRandom              uint32 = 0x0101
	verSelectOnParameter   uint32 = 0x0101
	verSelectOnDestination uint32 = 0x0101
	verCreateProp          uint32 = 0x0100
	verActorOperation      uint32 = 0x0100
)

// Register installs a decoder for every block kind in the family on
// reg. Call once at process start; see rcol.Registry for the
// concurrency contract.
func Register(reg *rcol.Registry) {
	reg.Register(TagStateMachine, TypeIDStateMachine, decodeStateMachine)
	reg.Register(TagState, TypeIDState, decodeState)
	reg.Register(TagDecisionGraph, TypeIDDecisionGraph, decodeDecisionGraph)
	reg.Register(TagActorDefinition, TypeIDActorDefinition, decodeActorDefinition)
	reg.Register(TagParameterDefinition, TypeIDParameterDefinition, decodeParameterDefinition)
	reg.Register(TagPlayAnimation, TypeIDPlayAnimation, decodePlayAnimation)
	reg.Register(TagStopAnimation, TypeIDStopAnimation, decodeStopAnimation)
	reg.Register(TagNextState, TypeIDNextState, decodeNextState)
	reg.Register(TagRandom, TypeIDRandom, decodeRandom)
	reg.Register(TagSelectOnParameter, TypeIDSelectOnParameter, decodeSelectOnParameter)
	reg.Register(TagSelectOnDestination, TypeIDSelectOnDestination, decodeSelectOnDestination)
	reg.Register(TagCreateProp, TypeIDCreateProp, decodeCreateProp)
	reg.Register(TagActorOperation, TypeIDActorOperation, decodeActorOperation)
}

// NewRegistry returns a registry with the whole family registered.
func NewRegistry() *rcol.Registry {
	reg := rcol.NewRegistry()
	Register(reg)
	return reg
}
