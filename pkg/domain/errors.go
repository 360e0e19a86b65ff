package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a model file does not exist or is not readable.
var ErrNotFound = errors.New("model not found")

// ErrUnsupportedEncoding is returned when a model spec names an unknown character encoding.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// ErrInvalidToken is returned when a token would break the line protocol.
var ErrInvalidToken = errors.New("invalid token")

// ErrStartFailure is returned when the engine cannot be launched or exits right after launch.
var ErrStartFailure = errors.New("engine failed to start")

// ErrWriteFailure is returned when a token cannot be written to the engine.
var ErrWriteFailure = errors.New("write to engine failed")

// ErrProtocol is returned when the engine output cannot be matched to the submitted tokens.
var ErrProtocol = errors.New("protocol violation")

// ErrSessionTerminated is returned when the session is shut down while a batch is in flight.
var ErrSessionTerminated = errors.New("session terminated")

// ErrSessionFailed is returned when a batch is submitted to a session that already failed.
// The session must be restarted first.
var ErrSessionFailed = errors.New("session failed")

// ErrConcurrentUsage is returned when a batch is submitted while another one is outstanding.
var ErrConcurrentUsage = errors.New("concurrent usage: a batch is already in flight")

// ErrHandler wraps errors returned by a caller-supplied handler.
var ErrHandler = errors.New("handler failed")

// ErrNoModel is returned when a batch is submitted before any model was configured.
var ErrNoModel = errors.New("no model configured")

// ErrNoHandler is returned when a batch is submitted without a result handler.
var ErrNoHandler = errors.New("no handler configured")

// ProtocolError carries the context needed to diagnose a desynchronization
// between submitted tokens and engine output.
type ProtocolError struct {
	Line     string
	Expected string
	Actual   string
	Reason   string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrProtocol.Error(), e.Reason)
	if e.Expected != "" || e.Actual != "" {
		msg += fmt.Sprintf(" (expected %q, got %q)", e.Expected, e.Actual)
	}
	if e.Line != "" {
		msg += fmt.Sprintf(" [line %q]", e.Line)
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrProtocol).
func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// IsFatal reports whether err invalidates the session it occurred on.
func IsFatal(err error) bool {
	return errors.Is(err, ErrWriteFailure) ||
		errors.Is(err, ErrProtocol) ||
		errors.Is(err, ErrSessionTerminated) ||
		errors.Is(err, ErrHandler) ||
		errors.Is(err, ErrStartFailure)
}
