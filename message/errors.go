package message

import "errors"

// ErrInvalidChannel is returned for channel indexes outside 0..MaxChannelIndex.
var ErrInvalidChannel = errors.New("message: channel index out of range")
