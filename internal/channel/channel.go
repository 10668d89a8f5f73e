// Package channel provides an in-process duplex message pipe standing in for
// a network transport between protocol parsing and tool dispatch.
//
// A Channel links two endpoints. Submitting a message on one endpoint
// schedules it for delivery to the peer's handler; delivery happens on a
// goroutine owned by the channel, decoupling the submitter from processing.
package channel

import (
	"context"
	"log/slog"
	"sync"

	gateerrors "github.com/voxline/toolgate/internal/errors"
	"github.com/voxline/toolgate/internal/jsonrpc"
)

// Handler consumes messages delivered to an endpoint.
type Handler func(msg *jsonrpc.Message)

const inboxSize = 16

// Channel is a linked pair of endpoints sharing one lifecycle.
type Channel struct {
	log    *slog.Logger
	client *Endpoint
	server *Endpoint

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Endpoint is one side of a channel. Each endpoint holds a single handler
// slot: registering a new handler replaces the previous one, and a nil
// handler detaches delivery (messages are dropped with a warning).
type Endpoint struct {
	ch    *Channel
	name  string
	inbox chan *jsonrpc.Message

	mu      sync.RWMutex
	handler Handler
}

// New creates a channel and starts its delivery loops.
func New(log *slog.Logger) *Channel {
	ch := &Channel{
		log:  log.With("component", "channel"),
		done: make(chan struct{}),
	}

	ch.client = &Endpoint{ch: ch, name: "client", inbox: make(chan *jsonrpc.Message, inboxSize)}
	ch.server = &Endpoint{ch: ch, name: "server", inbox: make(chan *jsonrpc.Message, inboxSize)}

	ch.wg.Add(2)

	go ch.deliver(ch.client)
	go ch.deliver(ch.server)

	return ch
}

// Client returns the submission-side endpoint used by the HTTP layer.
func (c *Channel) Client() *Endpoint { return c.client }

// Server returns the consumption-side endpoint driven by tool dispatch.
func (c *Channel) Server() *Endpoint { return c.server }

// Close shuts the channel down. Safe to call multiple times. In-flight
// submissions fail with ErrChannelClosed after Close returns.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	c.wg.Wait()
}

// deliver drains an endpoint's inbox into its current handler.
func (c *Channel) deliver(ep *Endpoint) {
	defer c.wg.Done()

	for {
		select {
		case msg := <-ep.inbox:
			ep.dispatch(msg)

		case <-c.done:
			return
		}
	}
}

// Submit enqueues a message for delivery to the peer endpoint. It resolves
// once delivery is scheduled, not once the message is processed.
func (e *Endpoint) Submit(ctx context.Context, msg *jsonrpc.Message) error {
	peer := e.peer()

	select {
	case <-e.ch.done:
		return gateerrors.ErrChannelClosed
	default:
	}

	select {
	case peer.inbox <- msg:
		return nil

	case <-e.ch.done:
		return gateerrors.ErrChannelClosed

	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnMessage installs the endpoint's handler, replacing any prior one.
// Passing nil detaches the current handler.
func (e *Endpoint) OnMessage(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handler = handler
}

func (e *Endpoint) peer() *Endpoint {
	if e == e.ch.client {
		return e.ch.server
	}

	return e.ch.client
}

func (e *Endpoint) dispatch(msg *jsonrpc.Message) {
	e.mu.RLock()
	handler := e.handler
	e.mu.RUnlock()

	if handler == nil {
		e.ch.log.Warn("No handler attached, dropping message", "endpoint", e.name, "method", msg.Method)

		return
	}

	handler(msg)
}
