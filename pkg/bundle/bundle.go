// Package bundle stores an RCOL container in a content-addressed
// archive: each chunk payload is digested, optionally compressed, and
// written behind a strict entry table, with a whole-file checksum
// trailer. Unlike the lenient container decoder, the bundle reader
// treats any malformation as a hard error; lenient recovery happens
// when the restored container bytes are decoded again.
package bundle

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"

	"github.com/glissade/rcol/pkg/rcol"
	"github.com/glissade/rcol/pkg/resource"
	"github.com/zeebo/blake3"
)

const (
	bundleMagic         = "RCB1"
	bundleFormatVersion = 1

	fixedHeaderSize = 16 // magic, format version, reserved, container version, public count
	entrySize       = 48 // tag, compression, reserved, raw size, stored size, digest
)

// Digest is a BLAKE3-256 hash: of one raw chunk payload in an entry,
// or of everything before the trailer for the whole bundle.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ParseDigest parses the hex form produced by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parse digest: %w", err)
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("parse digest: got %d bytes, want %d", len(raw), len(d))
	}
	copy(d[:], raw)
	return d, nil
}

func digestOf(data []byte) Digest {
	hasher := blake3.New()
	hasher.Write(data)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// Options configures bundle writing.
type Options struct {
	// Compression is the codec requested for every payload. Payloads
	// the codec cannot shrink are stored uncompressed regardless.
	Compression Compression
}

// Entry is one stored chunk: its decompressed payload plus the
// storage metadata from the entry table.
type Entry struct {
	Tag         string
	Compression Compression // codec actually used, after fallback
	StoredSize  uint32
	Digest      Digest // of the raw payload
	Payload     []byte // decompressed
}

// Bundle is a fully verified read of a bundle file.
type Bundle struct {
	ContainerVersion uint32
	PublicCount      int
	Resources        []resource.Key
	Entries          []Entry
	Digest           Digest // whole-bundle digest, as covered by the trailer
}

// Write encodes c's chunks into bundle form on w and returns the
// whole-bundle digest. Chunk payloads come from Payload, so demoted
// chunks are stored with their preserved raw bytes.
func Write(w io.Writer, c *rcol.Container, opts Options) (Digest, error) {
	chunks := c.Chunks()
	if len(chunks) > rcol.MaxCount {
		return Digest{}, fmt.Errorf("%d chunks exceed ceiling %d: %w", len(chunks), rcol.MaxCount, rcol.ErrUnreasonableCount)
	}
	if len(c.Resources) > rcol.MaxCount {
		return Digest{}, fmt.Errorf("%d resource keys exceed ceiling %d: %w", len(c.Resources), rcol.MaxCount, rcol.ErrUnreasonableCount)
	}

	type staged struct {
		raw    []byte
		stored []byte
		codec  Compression
		digest Digest
	}
	payloads := make([]staged, len(chunks))
	for i, ch := range chunks {
		raw, err := ch.Payload()
		if err != nil {
			return Digest{}, fmt.Errorf("encode chunk %d (%s): %w", i, ch.Tag, err)
		}
		if uint64(len(raw)) > math.MaxUint32 {
			return Digest{}, fmt.Errorf("chunk %d (%s): payload of %d bytes exceeds the 32-bit size field", i, ch.Tag, len(raw))
		}
		stored, codec, err := compress(raw, opts.Compression)
		if err != nil {
			return Digest{}, fmt.Errorf("compress chunk %d (%s): %w", i, ch.Tag, err)
		}
		payloads[i] = staged{raw: raw, stored: stored, codec: codec, digest: digestOf(raw)}
	}

	hdr := rcol.NewWriter()
	hdr.Raw([]byte(bundleMagic))
	hdr.U8(bundleFormatVersion)
	hdr.Raw([]byte{0, 0, 0})
	hdr.U32(c.Version)
	hdr.U32(uint32(len(c.Public)))
	hdr.U32(uint32(len(c.Resources)))
	for _, k := range c.Resources {
		hdr.Key(k, resource.OrderITG)
	}
	hdr.U32(uint32(len(chunks)))
	for i, ch := range chunks {
		if err := hdr.Tag(ch.Tag); err != nil {
			return Digest{}, fmt.Errorf("chunk %d: %w", i, err)
		}
		hdr.U8(uint8(payloads[i].codec))
		hdr.Raw([]byte{0, 0, 0})
		hdr.U32(uint32(len(payloads[i].raw)))
		hdr.U32(uint32(len(payloads[i].stored)))
		hdr.Raw(payloads[i].digest[:])
	}

	// Everything before the trailer streams through the hasher so the
	// trailer covers header, entry table, and payloads alike.
	hasher := blake3.New()
	out := io.MultiWriter(w, hasher)
	if _, err := out.Write(hdr.Bytes()); err != nil {
		return Digest{}, fmt.Errorf("write bundle header: %w", err)
	}
	for i := range payloads {
		if _, err := out.Write(payloads[i].stored); err != nil {
			return Digest{}, fmt.Errorf("write chunk %d payload: %w", i, err)
		}
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	if _, err := w.Write(digest[:]); err != nil {
		return Digest{}, fmt.Errorf("write bundle trailer: %w", err)
	}
	return digest, nil
}

// Read parses and fully verifies a bundle file: trailer checksum
// first, then the strict header and entry table, then every payload
// against its recorded size and digest.
func Read(data []byte) (*Bundle, error) {
	if len(data) < fixedHeaderSize+8+len(Digest{}) {
		return nil, fmt.Errorf("bundle of %d bytes is shorter than the minimal frame: %w", len(data), rcol.ErrShortRead)
	}
	body := data[:len(data)-len(Digest{})]
	var trailer Digest
	copy(trailer[:], data[len(body):])
	digest := digestOf(body)
	if digest != trailer {
		return nil, fmt.Errorf("bundle checksum mismatch")
	}

	r := rcol.NewReader(body)
	magic, err := r.Tag()
	if err != nil {
		return nil, fmt.Errorf("bundle magic: %w", err)
	}
	if magic != bundleMagic {
		return nil, fmt.Errorf("bad magic %q, want %q", magic, bundleMagic)
	}
	version, err := r.U8()
	if err != nil {
		return nil, fmt.Errorf("bundle format version: %w", err)
	}
	if version != bundleFormatVersion {
		return nil, fmt.Errorf("unsupported bundle format version %d", version)
	}
	if err := reservedZero(r, 3); err != nil {
		return nil, fmt.Errorf("bundle header: %w", err)
	}

	b := &Bundle{Digest: digest}
	if b.ContainerVersion, err = r.U32(); err != nil {
		return nil, fmt.Errorf("container version: %w", err)
	}
	publicCount, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("public count: %w", err)
	}

	keyCount, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("resource key count: %w", err)
	}
	if keyCount > 0 {
		b.Resources = make([]resource.Key, keyCount)
		for i := range b.Resources {
			if b.Resources[i], err = r.Key(resource.OrderITG); err != nil {
				return nil, fmt.Errorf("resource key %d: %w", i, err)
			}
		}
	}

	chunkCount, err := r.Count()
	if err != nil {
		return nil, fmt.Errorf("chunk count: %w", err)
	}
	if uint64(publicCount) > uint64(chunkCount) {
		return nil, fmt.Errorf("public count %d exceeds chunk count %d", publicCount, chunkCount)
	}
	b.PublicCount = int(publicCount)

	b.Entries = make([]Entry, chunkCount)
	rawSizes := make([]uint32, chunkCount)
	for i := range b.Entries {
		e := &b.Entries[i]
		if e.Tag, err = r.Tag(); err != nil {
			return nil, fmt.Errorf("entry %d tag: %w", i, err)
		}
		codec, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("entry %d compression: %w", i, err)
		}
		if codec > uint8(CompressionZstd) {
			return nil, fmt.Errorf("entry %d (%s): unsupported compression %d", i, e.Tag, codec)
		}
		e.Compression = Compression(codec)
		if err := reservedZero(r, 3); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Tag, err)
		}
		if rawSizes[i], err = r.U32(); err != nil {
			return nil, fmt.Errorf("entry %d raw size: %w", i, err)
		}
		if e.StoredSize, err = r.U32(); err != nil {
			return nil, fmt.Errorf("entry %d stored size: %w", i, err)
		}
		sum, err := r.Bytes(len(Digest{}))
		if err != nil {
			return nil, fmt.Errorf("entry %d digest: %w", i, err)
		}
		copy(e.Digest[:], sum)
	}

	for i := range b.Entries {
		e := &b.Entries[i]
		stored, err := r.Bytes(int(e.StoredSize))
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s) payload: %w", i, e.Tag, err)
		}
		raw, err := decompress(stored, e.Compression, int(rawSizes[i]))
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Tag, err)
		}
		if digestOf(raw) != e.Digest {
			return nil, fmt.Errorf("entry %d (%s): payload digest mismatch", i, e.Tag)
		}
		// Stored and raw can alias the bundle buffer when the payload
		// was not compressed; copy so entries own their bytes.
		e.Payload = append([]byte(nil), raw...)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after the last payload", r.Remaining())
	}
	return b, nil
}

func reservedZero(r *rcol.Reader, n int) error {
	pad, err := r.Bytes(n)
	if err != nil {
		return fmt.Errorf("reserved bytes: %w", err)
	}
	for _, v := range pad {
		if v != 0 {
			return fmt.Errorf("reserved bytes are not zero")
		}
	}
	return nil
}

// Restore rebuilds the container the bundle was written from. The
// verified payloads are framed back into container bytes and decoded
// through reg, so chunk demotion and diagnostics behave exactly as
// they would for the original file.
func (b *Bundle) Restore(reg *rcol.Registry) (*rcol.Container, error) {
	framed := rcol.New()
	framed.Version = b.ContainerVersion
	framed.Resources = b.Resources
	for i, e := range b.Entries {
		block := &rcol.RawBlock{ChunkTag: e.Tag, Payload: e.Payload}
		if i < b.PublicCount {
			framed.AddPublic(block)
		} else {
			framed.AddInternal(block)
		}
	}
	data, err := framed.Encode()
	if err != nil {
		return nil, fmt.Errorf("reframe container: %w", err)
	}
	c, err := rcol.Decode(data, reg)
	if err != nil {
		return nil, fmt.Errorf("decode restored container: %w", err)
	}
	return c, nil
}
