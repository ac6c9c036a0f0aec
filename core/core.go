/*
Package core holds the types shared by every layer of the agent connection:
the connection status and the error taxonomy. Callers should test errors with
errors.As because most of them are annotated on their way up.
*/
package core

import (
	"errors"
	"fmt"
)

// ConnectionStatus is the status of the top-level agent connection. It
// changes only on explicit Connect/Disconnect or when the connect handshake
// fails its state re-check.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connected
)

func (s ConnectionStatus) String() string {
	return [...]string{"Disconnected", "Connected"}[s]
}

// ErrClosed tells that the transport socket isn't open.
var ErrClosed = errors.New("transport is closed")

// ConnectionError is fatal for the in-flight operation. It's used for
// handshake and state mismatches and for failed reconnects, and it's the
// error every parked waiter receives when the transport goes down.
type ConnectionError struct {
	Op  string
	Err error
}

func NewConnectionError(op string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Err: err}
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "connection error: " + e.Op
	}
	return fmt.Sprintf("connection error: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ClassificationError is returned for an inbound frame whose @type isn't
// known. Only that frame is dropped.
type ClassificationError struct {
	Type   string
	Reason string
}

func (e *ClassificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot classify frame (%s): %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("unknown frame type: %q", e.Type)
}

// TransientPairingError tells that the remote party hasn't yet reported to
// our agent. The caller may refresh the state and try again, nothing here
// retries it.
type TransientPairingError struct {
	ConnectionKey string
}

func (e *TransientPairingError) Error() string {
	return fmt.Sprintf("remote party has not yet reported to the agent (key: %s)",
		e.ConnectionKey)
}

// IsTransient reports whether err is, or wraps, a TransientPairingError.
func IsTransient(err error) bool {
	var tpe *TransientPairingError
	return errors.As(err, &tpe)
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
