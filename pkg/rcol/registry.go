package rcol

import "fmt"

// Registry maps chunk tags and resource type ids to block decoders.
// Build one at process start, register every kind, then treat it as
// read-only: registration is not safe concurrently with decodes, but a
// finished registry may serve any number of concurrent decodes.
type Registry struct {
	byTag  map[string]registration
	byType map[uint32]registration
}

type registration struct {
	tag    string
	typeID uint32
	decode DecodeFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[string]registration),
		byType: make(map[uint32]registration),
	}
}

// Register installs a decoder for tag and typeID. Registering an
// already-registered tag replaces the prior entry; callers use this to
// override built-in decoders.
func (r *Registry) Register(tag string, typeID uint32, decode DecodeFunc) {
	reg := registration{tag: tag, typeID: typeID, decode: decode}
	r.byTag[tag] = reg
	r.byType[typeID] = reg
}

// Decode dispatches payload to the decoder registered for tag. A tag
// with no registration yields a RawBlock and no error: unknown chunk
// kinds are preserved, never rejected. A registered decoder's failure
// is returned so the container can demote the chunk.
//
// The payload slice is retained by the returned block.
func (r *Registry) Decode(tag string, payload []byte) (Block, error) {
	if reg, ok := r.byTag[tag]; ok {
		b, err := reg.decode(payload)
		if err != nil {
			return nil, fmt.Errorf("%s decoder: %w", tag, err)
		}
		return b, nil
	}
	return &RawBlock{ChunkTag: tag, Payload: payload}, nil
}

// Known reports whether tag has a registered decoder.
func (r *Registry) Known(tag string) bool {
	_, ok := r.byTag[tag]
	return ok
}

// LookupTag returns the resource type id registered for tag.
func (r *Registry) LookupTag(tag string) (uint32, bool) {
	reg, ok := r.byTag[tag]
	return reg.typeID, ok
}

// LookupType returns the tag registered for a resource type id.
func (r *Registry) LookupType(typeID uint32) (string, bool) {
	reg, ok := r.byType[typeID]
	return reg.tag, ok
}
