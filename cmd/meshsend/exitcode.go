package main

import (
	"context"
	"errors"

	"meshsend/client"
	"meshsend/config"
	"meshsend/message"
	"meshsend/mqtt"
	"meshsend/node"
)

// Process exit codes.
const (
	exitOK          = 0
	exitConfig      = 1
	exitBroker      = 2
	exitValidation  = 3
	exitInterrupted = 130
	exitUnexpected  = 99
)

// configError marks failures to load or create the config file.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

var validationErrors = []error{
	config.ErrValidation,
	client.ErrEmptyMessage,
	client.ErrMissingFromID,
	node.ErrInvalidAddress,
	node.ErrAddressRange,
	message.ErrInvalidChannel,
}

var brokerErrors = []error{
	mqtt.ErrConnectionTimeout,
	mqtt.ErrConnectionRefused,
	mqtt.ErrTransport,
	mqtt.ErrNotConnected,
	mqtt.ErrPublishFailed,
	mqtt.ErrSessionClosed,
}

// exitCode maps err to a process exit code. interrupted reports whether the
// run context was cancelled by a signal.
func exitCode(err error, interrupted bool) int {
	if err == nil {
		return exitOK
	}
	if interrupted || errors.Is(err, context.Canceled) {
		return exitInterrupted
	}

	var cerr *configError
	if errors.As(err, &cerr) {
		return exitConfig
	}
	var uerr *usageError
	if errors.As(err, &uerr) {
		return exitValidation
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return exitValidation
		}
	}
	for _, target := range brokerErrors {
		if errors.Is(err, target) {
			return exitBroker
		}
	}
	return exitUnexpected
}
