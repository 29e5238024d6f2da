// Package resource defines the (Type, Group, Instance) triple that
// identifies a resource outside the container it is referenced from.
package resource

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// KeySize is the serialized size of a Key: 8-byte instance plus two
// 4-byte fields.
const KeySize = 16

// Key identifies an external resource by type, group, and instance.
// Keys are immutable values; equality is structural.
type Key struct {
	Type     uint32
	Group    uint32
	Instance uint64
}

// Order selects the field order used when a Key is serialized. The
// order is a fixed property of the embedding context and is never
// detected from the data.
type Order int

const (
	// OrderITG lays out Instance, Type, Group.
	OrderITG Order = iota
	// OrderIGT lays out Instance, Group, Type.
	OrderIGT
)

func (o Order) String() string {
	switch o {
	case OrderITG:
		return "ITG"
	case OrderIGT:
		return "IGT"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// DecodeKey reads a 16-byte Key from data using the given field order.
func DecodeKey(data []byte, order Order) (Key, error) {
	if len(data) < KeySize {
		return Key{}, fmt.Errorf("resource key needs %d bytes, have %d", KeySize, len(data))
	}
	k := Key{Instance: binary.LittleEndian.Uint64(data[0:8])}
	first := binary.LittleEndian.Uint32(data[8:12])
	second := binary.LittleEndian.Uint32(data[12:16])
	switch order {
	case OrderITG:
		k.Type, k.Group = first, second
	case OrderIGT:
		k.Group, k.Type = first, second
	default:
		return Key{}, fmt.Errorf("unknown key order %d", int(order))
	}
	return k, nil
}

// Append serializes k in the given field order, appending to dst.
func (k Key) Append(dst []byte, order Order) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, k.Instance)
	switch order {
	case OrderIGT:
		dst = binary.LittleEndian.AppendUint32(dst, k.Group)
		dst = binary.LittleEndian.AppendUint32(dst, k.Type)
	default:
		dst = binary.LittleEndian.AppendUint32(dst, k.Type)
		dst = binary.LittleEndian.AppendUint32(dst, k.Group)
	}
	return dst
}

// String renders k as key:TTTTTTTT:GGGGGGGG:IIIIIIIIIIIIIIII with
// fixed-width uppercase hex fields.
func (k Key) String() string {
	return fmt.Sprintf("key:%08X:%08X:%016X", k.Type, k.Group, k.Instance)
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// ParseKey parses the String form of a Key. The leading "key:" prefix
// is optional; hex fields accept either case.
func ParseKey(s string) (Key, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "key:")
	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("parse key %q: want type:group:instance", s)
	}
	typ, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: type: %w", s, err)
	}
	group, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: group: %w", s, err)
	}
	instance, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: instance: %w", s, err)
	}
	return Key{Type: uint32(typ), Group: uint32(group), Instance: instance}, nil
}
