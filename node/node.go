// Package node parses and formats Meshtastic node identifiers.
//
// A node is addressed by a 32-bit unsigned integer. On the command line and in
// MQTT topics the same address is written either as "!" followed by hex digits
// ("!12345678"), as a plain decimal number, or as "^all" for broadcast.
package node

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address is a Meshtastic node number.
type Address uint32

// Broadcast is the reserved address that reaches every node on a channel.
const Broadcast Address = 0xFFFFFFFF

// BroadcastID is the string form of Broadcast.
const BroadcastID = "^all"

const hexPrefix = "!"

// ParseAddress converts a node-ID string into an Address.
//
//	"^all"      -> Broadcast
//	"!12345678" -> 0x12345678 (hex, case-insensitive)
//	"305419896" -> 305419896  (decimal)
//
// Values that do not fit in 32 bits are rejected with ErrAddressRange rather
// than truncated.
func ParseAddress(s string) (Address, error) {
	if s == BroadcastID {
		return Broadcast, nil
	}

	base := 10
	digits := s
	if strings.HasPrefix(s, hexPrefix) {
		base = 16
		digits = s[len(hexPrefix):]
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrAddressRange, s)
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(v), nil
}

// MustParseAddress is like ParseAddress but panics on error.
// It is intended for tests and constant tables.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsBroadcast reports whether a is the broadcast address.
func (a Address) IsBroadcast() bool {
	return a == Broadcast
}

// String returns the canonical "!%08x" form, or "^all" for broadcast.
func (a Address) String() string {
	if a.IsBroadcast() {
		return BroadcastID
	}
	return fmt.Sprintf("%s%08x", hexPrefix, uint32(a))
}
