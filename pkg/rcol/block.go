package rcol

import "fmt"

// Block is the decoded form of one chunk payload. Every concrete kind
// knows its 4-character tag, its 32-bit resource type id, and how to
// reproduce its payload bytes.
type Block interface {
	Tag() string
	TypeID() uint32
	Encode() ([]byte, error)
}

// DecodeFunc builds a Block from a chunk payload.
type DecodeFunc func(payload []byte) (Block, error)

// Referencer is implemented by blocks whose payload embeds references
// into the owning container's chunk list. References are reported in
// layout order; validation and graph traversal build on this.
type Referencer interface {
	References() []ChunkRef
}

// RawBlock preserves a chunk payload verbatim. It stands in for tags
// with no registered decoder and for chunks whose registered decoder
// failed, so unknown content survives a round trip unmodified.
type RawBlock struct {
	ChunkTag string
	Payload  []byte
}

func (b *RawBlock) Tag() string    { return b.ChunkTag }
func (b *RawBlock) TypeID() uint32 { return 0 }

func (b *RawBlock) Encode() ([]byte, error) {
	out := make([]byte, len(b.Payload))
	copy(out, b.Payload)
	return out, nil
}

// ChunkRef is a zero-based index into the owning container's chunk
// list, distinct from plain integers so a reference is only ever
// dereferenced through Resolve: during decode a reference may point at
// a chunk that has not been decoded yet, so resolution is deferred to
// a validation pass over the finished container.
type ChunkRef uint32

// NullRef is the reserved "no reference" index. The exact sentinel is
// not confirmed across all sample material; override it at process
// start if real files disagree.
var NullRef = ChunkRef(0xFFFFFFFF)

// IsNull reports whether ref equals the null sentinel.
func (ref ChunkRef) IsNull() bool { return ref == NullRef }

// Resolve returns the referenced chunk, or nil when ref is null or
// out of range.
func (ref ChunkRef) Resolve(c *Container) *Chunk {
	if c == nil || ref.IsNull() {
		return nil
	}
	return c.ChunkAt(int(ref))
}

func (ref ChunkRef) String() string {
	if ref.IsNull() {
		return "ref:none"
	}
	return fmt.Sprintf("ref:%d", uint32(ref))
}
