// Package rcol decodes, validates, and re-encodes the RCOL chunk
// container format: a little-endian stream carrying an ordered list of
// tagged chunks, a public/internal split of that list, and a table of
// external resource keys. Chunk payloads are dispatched through a
// Registry to typed block decoders; tags nobody registered are
// preserved byte-for-byte through RawBlock, so a container holding
// unknown chunk kinds still survives an unmodified round trip.
package rcol

import (
	"fmt"
	"math"

	"github.com/glissade/rcol/pkg/resource"
)

const (
	// DefaultVersion is the layout version written for new containers.
	DefaultVersion uint32 = 3

	headerSize   = 16 // version, key-table offset, public count, chunk count
	dirEntrySize = 12 // tag, position, length
)

// Chunk is one tagged, independently decodable unit inside a
// container. Its identity for cross-chunk references is its index in
// the owning container's chunk list; its byte position is recomputed
// on every encode and carries no identity.
type Chunk struct {
	Tag   string
	Raw   []byte // payload as read; empty for chunks built in memory
	Block Block
	Note  string // decode-failure note when the chunk was demoted
}

// Demoted reports whether the chunk's registered decoder failed and
// the raw payload was preserved instead.
func (ch *Chunk) Demoted() bool { return ch.Note != "" }

// Payload returns the bytes the chunk serializes to: the block's
// encoding when one is present, otherwise a copy of the raw bytes.
func (ch *Chunk) Payload() ([]byte, error) {
	if ch.Block != nil {
		return ch.Block.Encode()
	}
	out := make([]byte, len(ch.Raw))
	copy(out, ch.Raw)
	return out, nil
}

// Container is a decoded RCOL stream: an ordered chunk list split into
// a public prefix and an internal remainder, plus the external
// resource key list. Chunks at index >= len(Public) are reachable only
// through chunk references, never by resource lookup from outside.
//
// A container and its chunks belong to the caller that decoded or
// built them; nothing is shared between container instances, so
// independent containers may be processed concurrently.
type Container struct {
	Version     uint32
	Public      []*Chunk
	Internal    []*Chunk
	Resources   []resource.Key
	Diagnostics []Diagnostic
}

// New returns an empty container at the current layout version.
func New() *Container { return &Container{Version: DefaultVersion} }

// NumChunks returns the total chunk count, public plus internal.
func (c *Container) NumChunks() int { return len(c.Public) + len(c.Internal) }

// ChunkAt returns the chunk at index i in the public-then-internal
// ordering, or nil when i is out of range.
func (c *Container) ChunkAt(i int) *Chunk {
	if i < 0 || i >= c.NumChunks() {
		return nil
	}
	if i < len(c.Public) {
		return c.Public[i]
	}
	return c.Internal[i-len(c.Public)]
}

// Index returns ch's index in the container, or -1 when ch is not one
// of its chunks.
func (c *Container) Index(ch *Chunk) int {
	for i := 0; i < c.NumChunks(); i++ {
		if c.ChunkAt(i) == ch {
			return i
		}
	}
	return -1
}

// Chunks returns the full ordered chunk list, public then internal.
func (c *Container) Chunks() []*Chunk {
	out := make([]*Chunk, 0, c.NumChunks())
	out = append(out, c.Public...)
	return append(out, c.Internal...)
}

// PublicChunks returns only the externally addressable chunks.
func (c *Container) PublicChunks() []*Chunk { return c.Public }

// AddPublic appends a block as a new public chunk and returns its
// index. Growing the public prefix renumbers every internal chunk;
// references held elsewhere must be fixed up by the caller.
func (c *Container) AddPublic(b Block) int {
	c.Public = append(c.Public, &Chunk{Tag: b.Tag(), Block: b})
	return len(c.Public) - 1
}

// AddInternal appends a block as a new internal chunk and returns its
// container-wide index.
func (c *Container) AddInternal(b Block) int {
	c.Internal = append(c.Internal, &Chunk{Tag: b.Tag(), Block: b})
	return c.NumChunks() - 1
}

func (c *Container) diag(chunk int, tag string, kind DiagKind, format string, args ...any) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Chunk:   chunk,
		Tag:     tag,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Decode parses an RCOL stream.
//
// Wire layout, offsets from the container start, all little-endian:
//
//	0   u32 version
//	4   u32 key-table offset, self-relative to this field
//	8   u32 public chunk count
//	12  u32 chunk count
//	16  chunk count x { tag [4]byte; position u32; length u32 }
//	...  chunk payloads, densely packed
//	...  key table: u32 count; count x resource.Key (ITG order)
//
// Only an unreadable header or directory frame is a hard error. Every
// per-chunk problem (a decoder failure, a directory entry pointing
// outside the buffer, a bad key table offset) demotes or skips that
// one piece, records a Diagnostic, and lets the rest of the container
// through, because real containers routinely mix chunk kinds this code
// knows with ones it does not.
func Decode(data []byte, reg *Registry) (*Container, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	r := NewReader(data)

	version, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	keyTableOffset, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	publicCount, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}
	chunkCount, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("container header: %w", err)
	}

	type dirEntry struct {
		tag      string
		position uint32
		length   uint32
	}
	dir := make([]dirEntry, chunkCount)
	for i := range dir {
		if dir[i].tag, err = r.Tag(); err != nil {
			return nil, fmt.Errorf("chunk directory entry %d: %w", i, err)
		}
		if dir[i].position, err = r.U32(); err != nil {
			return nil, fmt.Errorf("chunk directory entry %d: %w", i, err)
		}
		if dir[i].length, err = r.U32(); err != nil {
			return nil, fmt.Errorf("chunk directory entry %d: %w", i, err)
		}
	}

	c := &Container{Version: version}

	if int(publicCount) > chunkCount {
		c.diag(-1, "", DiagBadPublicCount, "public count %d exceeds chunk count %d", publicCount, chunkCount)
		publicCount = uint32(chunkCount)
	}

	chunks := make([]*Chunk, chunkCount)
	for i, entry := range dir {
		ch := &Chunk{Tag: entry.tag}
		chunks[i] = ch

		end := uint64(entry.position) + uint64(entry.length)
		if end > uint64(len(data)) {
			c.diag(i, entry.tag, DiagBadDirectory, "payload [%d:%d) outside container of %d bytes", entry.position, end, len(data))
			ch.Block = &RawBlock{ChunkTag: entry.tag}
			continue
		}
		payload := make([]byte, entry.length)
		copy(payload, data[entry.position:end])
		ch.Raw = payload

		block, decodeErr := reg.Decode(entry.tag, payload)
		if decodeErr != nil {
			ch.Note = decodeErr.Error()
			ch.Block = &RawBlock{ChunkTag: entry.tag, Payload: payload}
			c.diag(i, entry.tag, DiagDecodeFailure, "%v", fmt.Errorf("%w: %v", ErrUnknownChunk, decodeErr))
			continue
		}
		ch.Block = block
	}
	c.Public = chunks[:publicCount]
	c.Internal = chunks[publicCount:]

	keyStart := uint64(4) + uint64(keyTableOffset)
	if keyStart > uint64(len(data)) {
		c.diag(-1, "", DiagBadKeyTable, "key table offset %d outside container of %d bytes", keyStart, len(data))
		return c, nil
	}
	kr := &Reader{data: data, off: int(keyStart)}
	keyCount, err := kr.Count()
	if err != nil {
		c.diag(-1, "", DiagBadKeyTable, "key table count: %v", err)
		return c, nil
	}
	keys := make([]resource.Key, 0, keyCount)
	for i := 0; i < keyCount; i++ {
		k, err := kr.Key(resource.OrderITG)
		if err != nil {
			c.diag(-1, "", DiagBadKeyTable, "key table entry %d: %v", i, err)
			break
		}
		keys = append(keys, k)
	}
	c.Resources = keys
	return c, nil
}

// Encode serializes the container, recomputing every chunk position,
// the key-table offset, and all collection counts from current state.
// Nothing read at decode time is cached: for any container this
// package produced, decode(encode(x)) re-encodes to the same bytes.
//
// Encode failures are fatal to the whole call; there is no partial
// container format.
func (c *Container) Encode() ([]byte, error) {
	total := c.NumChunks()
	if total > MaxCount {
		return nil, fmt.Errorf("container of %d chunks exceeds ceiling %d: %w", total, MaxCount, ErrUnreasonableCount)
	}
	if len(c.Resources) > MaxCount {
		return nil, fmt.Errorf("key table of %d entries exceeds ceiling %d: %w", len(c.Resources), MaxCount, ErrUnreasonableCount)
	}

	chunks := c.Chunks()
	payloads := make([][]byte, total)
	var payloadBytes uint64
	for i, ch := range chunks {
		p, err := ch.Payload()
		if err != nil {
			return nil, fmt.Errorf("encode chunk %d (%s): %w", i, ch.Tag, err)
		}
		payloads[i] = p
		payloadBytes += uint64(len(p))
	}

	payloadStart := uint64(headerSize) + uint64(total)*dirEntrySize
	keyTableStart := payloadStart + payloadBytes
	if keyTableStart > math.MaxUint32 {
		return nil, fmt.Errorf("container of %d bytes exceeds the 32-bit layout", keyTableStart)
	}

	w := NewWriter()
	w.U32(c.Version)
	w.U32(uint32(keyTableStart - 4))
	w.U32(uint32(len(c.Public)))
	w.U32(uint32(total))

	pos := payloadStart
	for i, ch := range chunks {
		if err := w.Tag(ch.Tag); err != nil {
			return nil, fmt.Errorf("encode chunk %d: %w", i, err)
		}
		w.U32(uint32(pos))
		w.U32(uint32(len(payloads[i])))
		pos += uint64(len(payloads[i]))
	}
	for _, p := range payloads {
		w.Raw(p)
	}

	w.U32(uint32(len(c.Resources)))
	for _, k := range c.Resources {
		w.Key(k, resource.OrderITG)
	}
	return w.Bytes(), nil
}
