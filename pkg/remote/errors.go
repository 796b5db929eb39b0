package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound is a definitive answer from the store that the record does not
// exist. Transport failures never produce it.
var ErrNotFound = errors.New("remote record not found")

// ConflictError reports that the record changed on the server since it was
// last read. Server holds the current server copy.
type ConflictError struct {
	RecordID string
	Server   *Record
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote record %s was modified concurrently", e.RecordID)
}

// TransportError wraps network, timeout and backend failures. It is always
// retryable and never means the record is gone.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsConflict returns the conflict carried by err, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// Transport wraps err as a *TransportError unless it already is one or is a
// definitive store answer.
func Transport(op string, err error) error {
	if err == nil || IsNotFound(err) || IsTransport(err) {
		return err
	}
	if _, ok := AsConflict(err); ok {
		return err
	}
	return transport(op, err)
}
