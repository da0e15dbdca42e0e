package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotFound is returned when an engine executable cannot be
	// located or does not identify itself as expected.
	ErrEngineNotFound = errors.New("engine not found")

	// ErrNoEngine is returned when no usable engine is available at all.
	ErrNoEngine = errors.New("no available cracking engine")

	// ErrUnsupportedEncoding is returned when an engine is asked to crack a
	// preimage encoding it cannot express.
	ErrUnsupportedEncoding = errors.New("encoding not supported by engine")

	// ErrEngineFailed is returned when an engine run exits unexpectedly.
	ErrEngineFailed = errors.New("engine run failed")
)

// Error describes a failure of one engine operation.
type Error struct {
	Engine string
	Op     string
	Err    error
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Engine, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
