// Package errors defines the error vocabulary shared across the gateway.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrRequestTimeout indicates a request saw no matching reply before the deadline.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrChannelClosed indicates the protocol channel has been closed.
	ErrChannelClosed = errors.New("protocol channel closed")

	// ErrMissingToolName indicates a tool invocation arrived without a tool name.
	ErrMissingToolName = errors.New("missing tool name")
)

// Compile-time verification that typed errors implement error.
var _ error = (*ParseError)(nil)

// ParseError indicates an inbound body could not be decoded as a JSON-RPC message.
// It preserves the raw data that failed to parse.
type ParseError struct {
	RawData string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON-RPC message: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
