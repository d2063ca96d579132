package node

import "errors"

var (
	// ErrInvalidAddress is returned for node-ID strings that are neither
	// "^all", "!<hex>" nor a decimal number.
	ErrInvalidAddress = errors.New("node: invalid address")

	// ErrAddressRange is returned when a node-ID does not fit in 32 bits.
	ErrAddressRange = errors.New("node: address out of 32-bit range")
)
