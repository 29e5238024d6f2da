package rcol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/glissade/rcol/pkg/resource"
)

func buildMarkContainer(t *testing.T) *Container {
	t.Helper()

	c := New()
	c.AddPublic(&markBlock{Value: 100, Next: ChunkRef(1)})
	c.AddInternal(&markBlock{Value: 200, Next: ChunkRef(2)})
	c.AddInternal(&markBlock{Value: 300, Next: NullRef})
	c.Resources = []resource.Key{
		{Type: 0x02D5DF13, Group: 0, Instance: 0x1122334455667788},
		{Type: 0x6B20C4F3, Group: 0x2B, Instance: 0xDEADBEEF},
	}
	return c
}

func TestContainerEncodeDecodeRoundTrip(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	c, err := Decode(data, markRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Diagnostics) != 0 {
		t.Fatalf("Diagnostics = %v, want none", c.Diagnostics)
	}
	if c.Version != DefaultVersion {
		t.Fatalf("Version = %d, want %d", c.Version, DefaultVersion)
	}
	if len(c.Public) != 1 || len(c.Internal) != 2 {
		t.Fatalf("split = %d public / %d internal, want 1/2", len(c.Public), len(c.Internal))
	}
	for i, want := range []uint32{100, 200, 300} {
		b, ok := c.ChunkAt(i).Block.(*markBlock)
		if !ok {
			t.Fatalf("chunk %d = %T, want *markBlock", i, c.ChunkAt(i).Block)
		}
		if b.Value != want {
			t.Fatalf("chunk %d value = %d, want %d", i, b.Value, want)
		}
	}
	if len(c.Resources) != 2 {
		t.Fatalf("len(Resources) = %d, want 2", len(c.Resources))
	}
	if got := c.Resources[1].Instance; got != 0xDEADBEEF {
		t.Fatalf("Resources[1].Instance = %#x, want 0xdeadbeef", got)
	}

	again, err := c.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("re-encoded stream differs: %d bytes vs %d", len(again), len(data))
	}
}

func TestContainerHeaderLayout(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if got := binary.LittleEndian.Uint32(data[0:]); got != DefaultVersion {
		t.Fatalf("version field = %d, want %d", got, DefaultVersion)
	}
	if got := binary.LittleEndian.Uint32(data[8:]); got != 1 {
		t.Fatalf("public count field = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[12:]); got != 3 {
		t.Fatalf("chunk count field = %d, want 3", got)
	}
	if got := string(data[16:20]); got != markTag {
		t.Fatalf("first directory tag = %q, want %q", got, markTag)
	}

	// The key-table offset is relative to its own field at byte 4.
	tableStart := 4 + binary.LittleEndian.Uint32(data[4:])
	if got := binary.LittleEndian.Uint32(data[tableStart:]); got != 2 {
		t.Fatalf("key count at table start = %d, want 2", got)
	}
	// Table entries are instance-first (ITG order).
	k, err := resource.DecodeKey(data[tableStart+4:tableStart+20], resource.OrderITG)
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if k.Type != 0x02D5DF13 || k.Instance != 0x1122334455667788 {
		t.Fatalf("first key = %v", k)
	}
}

func TestDecodePreservesUnknownChunks(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// A nil registry knows no tags, so every chunk comes back raw.
	c, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Diagnostics) != 0 {
		t.Fatalf("Diagnostics = %v, want none", c.Diagnostics)
	}
	for i := 0; i < c.NumChunks(); i++ {
		if _, ok := c.ChunkAt(i).Block.(*RawBlock); !ok {
			t.Fatalf("chunk %d = %T, want *RawBlock", i, c.ChunkAt(i).Block)
		}
		if c.ChunkAt(i).Demoted() {
			t.Fatalf("chunk %d reported demoted; unknown is not a failure", i)
		}
	}

	again, err := c.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatal("unknown chunks did not survive the round trip byte-for-byte")
	}
}

func TestDecodeDemotesFailingChunk(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Corrupt the embedded tag of the second chunk's payload. The
	// directory tag still dispatches it to the mark decoder, which
	// must reject it.
	payloadStart := headerSize + 3*dirEntrySize
	markLen := 12 // tag + value + ref
	data[payloadStart+markLen] ^= 0xFF

	c, err := Decode(data, markRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ch := c.ChunkAt(1)
	if !ch.Demoted() {
		t.Fatal("corrupted chunk not demoted")
	}
	if _, ok := ch.Block.(*RawBlock); !ok {
		t.Fatalf("demoted chunk block = %T, want *RawBlock", ch.Block)
	}
	if ch.Note == "" {
		t.Fatal("demoted chunk carries no failure note")
	}
	if len(c.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly one", c.Diagnostics)
	}
	d := c.Diagnostics[0]
	if d.Kind != DiagDecodeFailure || d.Chunk != 1 || d.Tag != markTag {
		t.Fatalf("diagnostic = %+v", d)
	}

	// Healthy siblings still decode.
	if _, ok := c.ChunkAt(0).Block.(*markBlock); !ok {
		t.Fatalf("chunk 0 = %T, want *markBlock", c.ChunkAt(0).Block)
	}
	if _, ok := c.ChunkAt(2).Block.(*markBlock); !ok {
		t.Fatalf("chunk 2 = %T, want *markBlock", c.ChunkAt(2).Block)
	}

	// The demoted payload re-encodes verbatim, corruption included.
	again, err := c.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatal("demoted chunk altered the stream")
	}
}

func TestDecodeClampsPublicCount(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	binary.LittleEndian.PutUint32(data[8:], 9) // public count beyond 3 chunks

	c, err := Decode(data, markRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Public) != 3 || len(c.Internal) != 0 {
		t.Fatalf("split = %d/%d after clamp, want 3/0", len(c.Public), len(c.Internal))
	}
	if len(c.Diagnostics) != 1 || c.Diagnostics[0].Kind != DiagBadPublicCount {
		t.Fatalf("Diagnostics = %v, want one BadPublicCount", c.Diagnostics)
	}
}

func TestDecodeFlagsBadDirectoryEntry(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Point chunk 0's payload far outside the buffer.
	binary.LittleEndian.PutUint32(data[16+4:], 0xFFFFFF00)

	c, err := Decode(data, markRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ch := c.ChunkAt(0)
	raw, ok := ch.Block.(*RawBlock)
	if !ok {
		t.Fatalf("chunk 0 = %T, want *RawBlock", ch.Block)
	}
	if len(raw.Payload) != 0 {
		t.Fatalf("payload %x fabricated for unreadable chunk", raw.Payload)
	}
	if len(c.Diagnostics) != 1 || c.Diagnostics[0].Kind != DiagBadDirectory {
		t.Fatalf("Diagnostics = %v, want one BadDirectory", c.Diagnostics)
	}
	// The other chunks are unaffected.
	if b, ok := c.ChunkAt(2).Block.(*markBlock); !ok || b.Value != 300 {
		t.Fatalf("chunk 2 = %+v", c.ChunkAt(2).Block)
	}
}

func TestDecodeFlagsBadKeyTable(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	binary.LittleEndian.PutUint32(data[4:], 0xFFFFFFF0)

	c, err := Decode(data, markRegistry())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Resources) != 0 {
		t.Fatalf("Resources = %v, want none", c.Resources)
	}
	if len(c.Diagnostics) != 1 || c.Diagnostics[0].Kind != DiagBadKeyTable {
		t.Fatalf("Diagnostics = %v, want one BadKeyTable", c.Diagnostics)
	}
	if c.NumChunks() != 3 {
		t.Fatalf("NumChunks = %d, want 3", c.NumChunks())
	}
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	data, err := buildMarkContainer(t).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if _, err := Decode(data[:7], nil); err == nil {
		t.Fatal("expected error for truncated header")
	}
	// Header intact, directory cut short.
	if _, err := Decode(data[:headerSize+5], nil); err == nil {
		t.Fatal("expected error for truncated directory")
	}
}

func TestChunkIndexing(t *testing.T) {
	c := buildMarkContainer(t)

	if c.NumChunks() != 3 {
		t.Fatalf("NumChunks = %d, want 3", c.NumChunks())
	}
	if c.ChunkAt(-1) != nil || c.ChunkAt(3) != nil {
		t.Fatal("out-of-range ChunkAt returned a chunk")
	}
	if c.ChunkAt(0) != c.Public[0] {
		t.Fatal("ChunkAt(0) is not the first public chunk")
	}
	if c.ChunkAt(2) != c.Internal[1] {
		t.Fatal("ChunkAt(2) is not the last internal chunk")
	}
	for i := 0; i < 3; i++ {
		if got := c.Index(c.ChunkAt(i)); got != i {
			t.Fatalf("Index(chunk %d) = %d", i, got)
		}
	}
	if got := c.Index(&Chunk{}); got != -1 {
		t.Fatalf("Index(foreign chunk) = %d, want -1", got)
	}

	all := c.Chunks()
	if len(all) != 3 || all[0] != c.Public[0] || all[2] != c.Internal[1] {
		t.Fatalf("Chunks() = %v", all)
	}
}

func TestValidateReferences(t *testing.T) {
	c := New()
	c.AddPublic(&markBlock{Value: 1, Next: ChunkRef(1)})
	c.AddInternal(&markBlock{Value: 2, Next: NullRef})
	c.AddInternal(&markBlock{Value: 3, Next: ChunkRef(50)})

	found := ValidateReferences(c)
	if len(found) != 1 {
		t.Fatalf("found = %v, want exactly one", found)
	}
	d := found[0]
	if d.Kind != DiagRefOutOfRange || d.Chunk != 2 || d.Tag != markTag {
		t.Fatalf("diagnostic = %+v", d)
	}
	if len(c.Diagnostics) != 1 {
		t.Fatalf("container diagnostics = %v, want the finding appended", c.Diagnostics)
	}
}

func TestChunkRefResolve(t *testing.T) {
	c := buildMarkContainer(t)

	if got := ChunkRef(2).Resolve(c); got != c.Internal[1] {
		t.Fatalf("Resolve(2) = %v", got)
	}
	if got := NullRef.Resolve(c); got != nil {
		t.Fatalf("Resolve(null) = %v, want nil", got)
	}
	if got := ChunkRef(9).Resolve(c); got != nil {
		t.Fatalf("Resolve(9) = %v, want nil", got)
	}
}
