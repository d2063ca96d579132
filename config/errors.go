package config

import "errors"

var (
	// ErrNotFound is returned by Load when the config file does not exist.
	ErrNotFound = errors.New("config: file not found")

	// ErrValidation is returned by Validate; the message lists every problem.
	ErrValidation = errors.New("config: validation failed")

	// ErrEnv is returned when an environment override cannot be parsed.
	ErrEnv = errors.New("config: invalid environment value")
)
