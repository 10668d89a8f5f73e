// Package dispatch drives the server side of the protocol channel: it
// consumes submitted JSON-RPC messages, routes them to the tool registry,
// and produces reply messages back through the channel.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/voxline/toolgate/internal/channel"
	"github.com/voxline/toolgate/internal/jsonrpc"
	"github.com/voxline/toolgate/internal/registry"
)

// ProtocolVersion is the protocol revision reported by the initialize handshake.
const ProtocolVersion = "2024-11-05"

// Server consumes the server-side endpoint of a channel.
type Server struct {
	log      *slog.Logger
	registry *registry.Registry
	endpoint *channel.Endpoint
	name     string
	version  string
}

// New creates a dispatch server and attaches it to the endpoint's handler slot.
func New(log *slog.Logger, reg *registry.Registry, endpoint *channel.Endpoint, name, version string) *Server {
	s := &Server{
		log:      log.With("component", "dispatch"),
		registry: reg,
		endpoint: endpoint,
		name:     name,
		version:  version,
	}

	endpoint.OnMessage(s.handle)

	return s
}

// handle routes one inbound message. Replies are submitted back toward the
// client endpoint; notifications produce no reply.
func (s *Server) handle(msg *jsonrpc.Message) {
	ctx := context.Background()

	switch msg.Method {
	case "initialize":
		s.reply(ctx, s.initializeResult(msg))

	case "notifications/initialized":
		// Handshake acknowledgment, nothing to do.

	case "ping":
		s.replyResult(ctx, msg, map[string]any{})

	case "tools/list":
		s.handleToolsList(ctx, msg)

	case "tools/call":
		s.handleToolsCall(ctx, msg)

	default:
		if msg.IsNotification() {
			s.log.Debug("Dropping unknown notification", "method", msg.Method)

			return
		}

		s.reply(ctx, jsonrpc.NewError(msg.ID, jsonrpc.CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", msg.Method)))
	}
}

func (s *Server) initializeResult(msg *jsonrpc.Message) *jsonrpc.Message {
	reply, err := jsonrpc.NewResult(msg.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	})
	if err != nil {
		return jsonrpc.NewError(msg.ID, jsonrpc.CodeInternalError, err.Error())
	}

	return reply
}

func (s *Server) handleToolsList(ctx context.Context, msg *jsonrpc.Message) {
	units := s.registry.List()

	tools := make([]json.RawMessage, 0, len(units))
	for _, unit := range units {
		data, err := json.Marshal(unit.Definition())
		if err != nil {
			s.log.Error("Failed to marshal tool definition", "tool", unit.Name, "error", err)

			continue
		}

		tools = append(tools, data)
	}

	s.replyResult(ctx, msg, map[string]any{"tools": tools})
}

func (s *Server) handleToolsCall(ctx context.Context, msg *jsonrpc.Message) {
	params, err := msg.ParamsMap()
	if err != nil {
		s.reply(ctx, jsonrpc.NewError(msg.ID, jsonrpc.CodeInvalidParams, err.Error()))

		return
	}

	name, _ := params["name"].(string)
	if name == "" {
		s.reply(ctx, jsonrpc.NewError(msg.ID, jsonrpc.CodeInvalidParams, "missing tool name"))

		return
	}

	arguments, _ := params["arguments"].(map[string]any)

	// The registry contains tool faults: the reply is always a result, with
	// isError set when the tool failed.
	result := s.registry.Execute(ctx, name, arguments)

	s.replyResult(ctx, msg, result)
}

func (s *Server) replyResult(ctx context.Context, msg *jsonrpc.Message, result any) {
	reply, err := jsonrpc.NewResult(msg.ID, result)
	if err != nil {
		s.log.Error("Failed to build result reply", "method", msg.Method, "error", err)

		reply = jsonrpc.NewError(msg.ID, jsonrpc.CodeInternalError, err.Error())
	}

	s.reply(ctx, reply)
}

func (s *Server) reply(ctx context.Context, reply *jsonrpc.Message) {
	if err := s.endpoint.Submit(ctx, reply); err != nil {
		s.log.Error("Failed to submit reply", "error", err)
	}
}
