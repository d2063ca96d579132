// Package logging provides structured logging for meshsend.
//
// It wraps log/slog with the level, format and output settings from the
// `logging:` section of the config file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// Loggers are created once in main and handed to the packages that log.
// Never log MQTT passwords.
package logging
