package rcol

import (
	"errors"
	"strings"
	"testing"

	"github.com/glissade/rcol/pkg/resource"
)

func TestReaderScalarRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(0xAB)
	w.U16(0xBEEF)
	w.U32(0xDEADBEEF)
	w.U64(0x0123456789ABCDEF)
	w.F32(1.5)
	w.Ref(ChunkRef(7))
	w.Ref(NullRef)

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = (%#x, %v), want 0xab", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xBEEF {
		t.Fatalf("U16 = (%#x, %v), want 0xbeef", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = (%#x, %v), want 0xdeadbeef", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0123456789ABCDEF {
		t.Fatalf("U64 = (%#x, %v), want 0x0123456789abcdef", v, err)
	}
	if v, err := r.F32(); err != nil || v != 1.5 {
		t.Fatalf("F32 = (%v, %v), want 1.5", v, err)
	}
	if ref, err := r.Ref(); err != nil || ref != ChunkRef(7) {
		t.Fatalf("Ref = (%v, %v), want ref:7", ref, err)
	}
	ref, err := r.Ref()
	if err != nil || !ref.IsNull() {
		t.Fatalf("Ref = (%v, %v), want null", ref, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d after full read, want 0", r.Remaining())
	}
}

func TestReaderShortRead(t *testing.T) {
	tests := []struct {
		name string
		read func(r *Reader) error
	}{
		{name: "u16", read: func(r *Reader) error { _, err := r.U16(); return err }},
		{name: "u32", read: func(r *Reader) error { _, err := r.U32(); return err }},
		{name: "u64", read: func(r *Reader) error { _, err := r.U64(); return err }},
		{name: "tag", read: func(r *Reader) error { _, err := r.Tag(); return err }},
		{name: "key", read: func(r *Reader) error { _, err := r.Key(resource.OrderITG); return err }},
		{name: "string16", read: func(r *Reader) error { _, err := r.String16(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader([]byte{0x01})
			err := tt.read(r)
			if !errors.Is(err, ErrShortRead) {
				t.Fatalf("err = %v, want ErrShortRead", err)
			}
			if r.Offset() != 0 {
				t.Fatalf("cursor moved to %d on failed read", r.Offset())
			}
		})
	}
}

func TestExpectTag(t *testing.T) {
	w := NewWriter()
	if err := w.Tag("Play"); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	if err := NewReader(w.Bytes()).ExpectTag("Play"); err != nil {
		t.Fatalf("ExpectTag(Play) = %v, want nil", err)
	}
	err := NewReader(w.Bytes()).ExpectTag("Stop")
	if !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("ExpectTag(Stop) = %v, want ErrTagMismatch", err)
	}
}

func TestWriterTagRejectsWrongLength(t *testing.T) {
	w := NewWriter()
	if err := w.Tag("TooLong"); err == nil {
		t.Fatal("expected error for 7-byte tag")
	}
	if err := w.Tag("ab"); err == nil {
		t.Fatal("expected error for 2-byte tag")
	}
}

func TestString16RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		s    string
	}{
		{name: "empty", s: ""},
		{name: "ascii", s: "a2o_idle_loop"},
		{name: "bmp", s: "så_name"},
		{name: "astral", s: "clip_\U0001D11E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			if err := w.String16(tt.s); err != nil {
				t.Fatalf("String16: %v", err)
			}
			got, err := NewReader(w.Bytes()).String16()
			if err != nil {
				t.Fatalf("read String16: %v", err)
			}
			if got != tt.s {
				t.Fatalf("round trip = %q, want %q", got, tt.s)
			}
		})
	}
}

func TestString16RejectsBadTerminator(t *testing.T) {
	w := NewWriter()
	w.U16(1)      // one code unit
	w.U16('x')    // the unit
	w.U16(0x0041) // terminator should be zero

	_, err := NewReader(w.Bytes()).String16()
	if !errors.Is(err, ErrSentinelMismatch) {
		t.Fatalf("err = %v, want ErrSentinelMismatch", err)
	}
}

func TestWriterString16RejectsOversize(t *testing.T) {
	w := NewWriter()
	if err := w.String16(strings.Repeat("a", 1<<16)); err == nil {
		t.Fatal("expected error for string above the 16-bit unit count")
	}
}

func TestCountCeiling(t *testing.T) {
	w := NewWriter()
	w.U32(MaxCount + 1)

	_, err := NewReader(w.Bytes()).Count()
	if !errors.Is(err, ErrUnreasonableCount) {
		t.Fatalf("err = %v, want ErrUnreasonableCount", err)
	}

	w2 := NewWriter()
	w2.U32(MaxCount)
	if n, err := NewReader(w2.Bytes()).Count(); err != nil || n != MaxCount {
		t.Fatalf("Count at ceiling = (%d, %v), want (%d, nil)", n, err, MaxCount)
	}
}

func TestSentinel(t *testing.T) {
	w := NewWriter()
	w.Sentinel(SentinelAlign)
	w.Sentinel(SentinelCloseGraph)

	r := NewReader(w.Bytes())
	if err := r.Sentinel(SentinelAlign); err != nil {
		t.Fatalf("Sentinel(align) = %v, want nil", err)
	}
	err := r.Sentinel(SentinelAlign)
	if !errors.Is(err, ErrSentinelMismatch) {
		t.Fatalf("Sentinel against close-graph marker = %v, want ErrSentinelMismatch", err)
	}
}

func TestRefListRoundTrip(t *testing.T) {
	refs := []ChunkRef{3, NullRef, 0, 12}

	w := NewWriter()
	if err := w.RefList(refs); err != nil {
		t.Fatalf("RefList: %v", err)
	}
	got, err := NewReader(w.Bytes()).RefList()
	if err != nil {
		t.Fatalf("read RefList: %v", err)
	}
	if len(got) != len(refs) {
		t.Fatalf("len = %d, want %d", len(got), len(refs))
	}
	for i := range refs {
		if got[i] != refs[i] {
			t.Fatalf("ref[%d] = %v, want %v", i, got[i], refs[i])
		}
	}

	w2 := NewWriter()
	if err := w2.RefList(nil); err != nil {
		t.Fatalf("RefList(nil): %v", err)
	}
	if empty, err := NewReader(w2.Bytes()).RefList(); err != nil || len(empty) != 0 {
		t.Fatalf("empty list round trip = (%v, %v)", empty, err)
	}
}
