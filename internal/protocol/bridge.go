// Package protocol correlates asynchronous replies with the requests that
// caused them, enforcing a hard per-request timeout.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxline/toolgate/internal/channel"
	gateerrors "github.com/voxline/toolgate/internal/errors"
	"github.com/voxline/toolgate/internal/jsonrpc"
)

// DefaultTimeout is the wall-clock deadline for a matching reply.
const DefaultTimeout = 30 * time.Second

// Bridge submits requests on a channel's client endpoint and waits for the
// matching reply.
//
// The underlying channel is single and shared, and the match policy below is
// deliberately broad, so the Bridge serializes requests: at most one is in
// flight at a time. Concurrent callers queue on the mutex rather than racing
// for the endpoint's single handler slot.
type Bridge struct {
	log      *slog.Logger
	endpoint *channel.Endpoint
	timeout  time.Duration

	mu sync.Mutex // single in-flight request
}

// New creates a bridge over the given client-side endpoint.
func New(log *slog.Logger, endpoint *channel.Endpoint) *Bridge {
	return NewWithTimeout(log, endpoint, DefaultTimeout)
}

// NewWithTimeout creates a bridge with a non-default reply deadline.
func NewWithTimeout(log *slog.Logger, endpoint *channel.Endpoint, timeout time.Duration) *Bridge {
	return &Bridge{
		log:      log.With("component", "protocol"),
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// RoundTrip submits a request and blocks until a matching reply arrives or
// the timeout fires.
//
// On timeout it returns a synthetic internal-error reply carrying the
// original id, together with ErrRequestTimeout so the transport layer can map
// the status. A submission failure returns a nil reply and the wrapped error.
func (b *Bridge) RoundTrip(ctx context.Context, req *jsonrpc.Message) (*jsonrpc.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	replyCh := make(chan *jsonrpc.Message, 1)

	b.endpoint.OnMessage(func(msg *jsonrpc.Message) {
		if !matches(req, msg) {
			b.log.Debug("Ignoring unmatched message", "method", msg.Method)

			return
		}

		select {
		case replyCh <- msg:
		default:
			// Already fulfilled; late duplicates are dropped.
		}
	})

	// Detach the handler on every exit path so no further messages are
	// inspected for this request.
	defer b.endpoint.OnMessage(nil)

	if err := b.endpoint.Submit(ctx, req); err != nil {
		return nil, fmt.Errorf("submit request: %w", err)
	}

	select {
	case reply := <-replyCh:
		return reply, nil

	case <-time.After(b.timeout):
		b.log.Warn("Request timed out", "method", req.Method, "timeout", b.timeout)

		return jsonrpc.NewError(req.ID, jsonrpc.CodeInternalError, "request timed out"),
			gateerrors.ErrRequestTimeout

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Notify submits a notification without waiting for any reply.
func (b *Bridge) Notify(ctx context.Context, msg *jsonrpc.Message) error {
	if err := b.endpoint.Submit(ctx, msg); err != nil {
		return fmt.Errorf("submit notification: %w", err)
	}

	return nil
}

// matches implements the reply-match policy. A message matches the awaited
// request when any of the following holds:
//
//   - its id equals the request's id,
//   - the request was the initialize handshake and the message's result
//     carries a protocolVersion field,
//   - the message carries a result,
//   - the message carries an error.
//
// The policy is broad on purpose: the transport is single-channel and the
// Bridge guarantees one request in flight per handler registration.
func matches(req, msg *jsonrpc.Message) bool {
	if jsonrpc.EqualIDs(req.ID, msg.ID) {
		return true
	}

	if req.Method == "initialize" && resultHasProtocolVersion(msg) {
		return true
	}

	if len(msg.Result) > 0 {
		return true
	}

	return msg.Error != nil
}

func resultHasProtocolVersion(msg *jsonrpc.Message) bool {
	if len(msg.Result) == 0 || bytes.Equal(msg.Result, []byte("null")) {
		return false
	}

	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
	}

	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return false
	}

	return result.ProtocolVersion != ""
}
