package rcol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/glissade/rcol/pkg/resource"
)

// Writer builds the little-endian container stream in an append-only
// buffer, mirroring Reader's reads. Methods that cannot produce an
// unrepresentable value return nothing.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) U8(v uint8)    { w.buf = append(w.buf, v) }
func (w *Writer) U16(v uint16)  { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) U32(v uint32)  { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64)  { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// Tag writes a 4-character ASCII chunk tag.
func (w *Writer) Tag(tag string) error {
	if len(tag) != 4 {
		return fmt.Errorf("tag %q must be exactly 4 bytes", tag)
	}
	w.buf = append(w.buf, tag...)
	return nil
}

// Ref writes one 32-bit chunk reference.
func (w *Writer) Ref(ref ChunkRef) { w.U32(uint32(ref)) }

// RefList writes a 32-bit count followed by the references in order.
func (w *Writer) RefList(refs []ChunkRef) error {
	if len(refs) > MaxCount {
		return fmt.Errorf("reference list of %d entries exceeds ceiling %d: %w", len(refs), MaxCount, ErrUnreasonableCount)
	}
	w.U32(uint32(len(refs)))
	for _, ref := range refs {
		w.Ref(ref)
	}
	return nil
}

// Sentinel writes a 32-bit structural marker.
func (w *Writer) Sentinel(v uint32) { w.U32(v) }

// String16 writes a 16-bit character count, UTF-16LE code units, and
// the zero terminator. A string needing more than 65535 code units
// cannot be represented and fails the encode.
func (w *Writer) String16(s string) error {
	units := utf16.Encode([]rune(s))
	if len(units) > math.MaxUint16 {
		return fmt.Errorf("string of %d UTF-16 units exceeds the 16-bit length prefix", len(units))
	}
	w.U16(uint16(len(units)))
	for _, u := range units {
		w.U16(u)
	}
	w.U16(0)
	return nil
}

// Key writes a 16-byte resource key in the given field order.
func (w *Writer) Key(k resource.Key, order resource.Order) {
	w.buf = k.Append(w.buf, order)
}
