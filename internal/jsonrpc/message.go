// Package jsonrpc implements the JSON-RPC 2.0 message envelope used on the wire.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	gateerrors "github.com/voxline/toolgate/internal/errors"
)

// Version is the JSON-RPC protocol version carried on every message.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Message is a single JSON-RPC 2.0 message: a request, a notification, or a reply.
//
// The ID is kept as raw JSON so string and numeric identifiers round-trip
// unchanged. An absent ID marks the message as a notification. Exactly one of
// Result and Error is populated on a reply.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Parse decodes a single JSON-RPC message from raw bytes.
//
// Only envelope-level validity is checked here; method routing and parameter
// validation happen downstream. Failures are reported as *errors.ParseError.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &gateerrors.ParseError{RawData: string(data), Err: err}
	}

	return &msg, nil
}

// IsNotification reports whether the message carries no id and therefore
// expects no reply. An explicit JSON null id counts as absent.
func (m *Message) IsNotification() bool {
	return len(m.ID) == 0 || bytes.Equal(m.ID, []byte("null"))
}

// ParamsMap decodes the params field into a generic map.
// A missing params field yields an empty map.
func (m *Message) ParamsMap() (map[string]any, error) {
	if len(m.Params) == 0 {
		return map[string]any{}, nil
	}

	var params map[string]any
	if err := json.Unmarshal(m.Params, &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	return params, nil
}

// NewResult builds a reply message carrying a result payload for the given id.
func NewResult(id json.RawMessage, result any) (*Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return &Message{JSONRPC: Version, ID: id, Result: data}, nil
}

// NewError builds a reply message carrying an error object for the given id.
// A nil id is encoded as JSON null, the JSON-RPC 2.0 convention for
// errors whose request id could not be determined.
func NewError(id json.RawMessage, code int, message string) *Message {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	return &Message{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}

// EqualIDs reports whether two raw ids denote the same identifier.
// Both are compacted first so formatting differences do not matter.
func EqualIDs(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return false
	}

	if err := json.Compact(&cb, b); err != nil {
		return false
	}

	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
