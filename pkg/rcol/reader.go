package rcol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/glissade/rcol/pkg/resource"
)

// MaxCount is the sanity ceiling for any counted sequence in the
// stream. Counts beyond it fail with ErrUnreasonableCount instead of
// attempting the allocation.
const MaxCount = 1 << 24

// Stream sentinels. The literals carry no meaning of their own; they
// exist so a corrupted or misread layout is caught at the marker
// instead of producing garbage fields downstream.
const (
	// SentinelAlign marks section boundaries inside chunk payloads.
	SentinelAlign uint32 = 0xDEADBEEF

	// SentinelCloseGraph ("/DGN" in ASCII) closes a node's trailing
	// outbound reference list.
	SentinelCloseGraph uint32 = 0x4E47442F
)

// Reader decodes the little-endian container stream from a byte
// slice, advancing an internal cursor. Reads past the end fail with
// ErrShortRead and leave the cursor in place.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, r.Remaining(), ErrShortRead)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bytes reads exactly n bytes. The returned slice aliases the
// underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d", n)
	}
	return r.take(n)
}

// Tag reads a 4-character ASCII chunk tag.
func (r *Reader) Tag() (string, error) {
	b, err := r.take(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectTag reads a tag and fails with ErrTagMismatch if it is not
// want.
func (r *Reader) ExpectTag(want string) error {
	got, err := r.Tag()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("embedded tag %q, dispatched as %q: %w", got, want, ErrTagMismatch)
	}
	return nil
}

// Ref reads one 32-bit chunk reference.
func (r *Reader) Ref() (ChunkRef, error) {
	v, err := r.U32()
	return ChunkRef(v), err
}

// Count reads a 32-bit count prefix, checked against MaxCount.
func (r *Reader) Count() (int, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	if v > MaxCount {
		return 0, fmt.Errorf("count %d at offset %d exceeds ceiling %d: %w", v, r.off-4, MaxCount, ErrUnreasonableCount)
	}
	return int(v), nil
}

// RefList reads a 32-bit count followed by that many chunk
// references. Order is preserved: it defines edge order in the graph.
func (r *Reader) RefList() ([]ChunkRef, error) {
	n, err := r.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]ChunkRef, n)
	for i := range out {
		if out[i], err = r.Ref(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Sentinel reads a 32-bit value and fails with ErrSentinelMismatch if
// it does not equal want.
func (r *Reader) Sentinel(want uint32) error {
	got, err := r.U32()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("marker at offset %d is 0x%08X, want 0x%08X: %w", r.off-4, got, want, ErrSentinelMismatch)
	}
	return nil
}

// String16 reads a string with a 16-bit character-count prefix,
// UTF-16LE code units, and a 16-bit zero terminator validated like any
// other sentinel.
func (r *Reader) String16() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		if units[i], err = r.U16(); err != nil {
			return "", err
		}
	}
	term, err := r.U16()
	if err != nil {
		return "", err
	}
	if term != 0 {
		return "", fmt.Errorf("string terminator at offset %d is 0x%04X, want zero: %w", r.off-2, term, ErrSentinelMismatch)
	}
	return string(utf16.Decode(units)), nil
}

// Key reads a 16-byte resource key in the given field order.
func (r *Reader) Key(order resource.Order) (resource.Key, error) {
	b, err := r.take(resource.KeySize)
	if err != nil {
		return resource.Key{}, err
	}
	return resource.DecodeKey(b, order)
}
