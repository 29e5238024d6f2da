package resource

import (
	"bytes"
	"testing"
)

func TestKeyAppendDecodeRoundTrip(t *testing.T) {
	k := Key{Type: 0x02D5DF13, Group: 0x00000000, Instance: 0x1234567890ABCDEF}

	for _, order := range []Order{OrderITG, OrderIGT} {
		t.Run(order.String(), func(t *testing.T) {
			data := k.Append(nil, order)
			if len(data) != KeySize {
				t.Fatalf("encoded len = %d, want %d", len(data), KeySize)
			}
			got, err := DecodeKey(data, order)
			if err != nil {
				t.Fatalf("DecodeKey: %v", err)
			}
			if got != k {
				t.Fatalf("round-trip mismatch: got %v want %v", got, k)
			}
		})
	}
}

func TestKeyOrderingsDiffer(t *testing.T) {
	k := Key{Type: 0x11111111, Group: 0x22222222, Instance: 0x3333333333333333}
	itg := k.Append(nil, OrderITG)
	igt := k.Append(nil, OrderIGT)
	if bytes.Equal(itg, igt) {
		t.Fatal("ITG and IGT encodings should differ for asymmetric keys")
	}

	// Decoding with the wrong order swaps type and group.
	swapped, err := DecodeKey(itg, OrderIGT)
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if swapped.Type != k.Group || swapped.Group != k.Type {
		t.Fatalf("cross-order decode = %v, want swapped type/group", swapped)
	}
}

func TestDecodeKeyShortInput(t *testing.T) {
	if _, err := DecodeKey(make([]byte, KeySize-1), OrderITG); err == nil {
		t.Fatal("expected error for short input")
	}
}

func TestKeyStringParseRoundTrip(t *testing.T) {
	k := Key{Type: 0x02EEDB92, Group: 0x0000002B, Instance: 0xDEADBEEF00112233}
	s := k.String()
	if s != "key:02EEDB92:0000002B:DEADBEEF00112233" {
		t.Fatalf("String() = %q", s)
	}

	got, err := ParseKey(s)
	if err != nil {
		t.Fatalf("ParseKey(%q): %v", s, err)
	}
	if got != k {
		t.Fatalf("parse round-trip = %v, want %v", got, k)
	}

	// Bare form without the prefix parses too.
	got, err = ParseKey("02eedb92:0000002b:deadbeef00112233")
	if err != nil {
		t.Fatalf("ParseKey bare: %v", err)
	}
	if got != k {
		t.Fatalf("bare parse = %v, want %v", got, k)
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "key:1:2", "key:xx:yy:zz", "1:2:3:4"} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q): expected error", s)
		}
	}
}
