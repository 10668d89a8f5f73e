// Package gateway exposes the protocol over HTTP.
//
// One POST endpoint carries JSON-RPC messages with event-stream framed
// replies; a small REST surface provides tool discovery and direct
// invocation; the root serves the HTML catalog.
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/voxline/toolgate/internal/auth"
	"github.com/voxline/toolgate/internal/dashboard"
	gateerrors "github.com/voxline/toolgate/internal/errors"
	"github.com/voxline/toolgate/internal/jsonrpc"
	"github.com/voxline/toolgate/internal/protocol"
	"github.com/voxline/toolgate/internal/registry"
)

// sessionHeader identifies the gateway session on every reply.
const sessionHeader = "Mcp-Session-Id"

// maxBodySize bounds inbound request bodies.
const maxBodySize = 1 << 20

// Gateway routes HTTP traffic into the protocol bridge and the registry.
type Gateway struct {
	log       *slog.Logger
	bridge    *protocol.Bridge
	registry  *registry.Registry
	dashboard *dashboard.Renderer
	session   string
	tokens    []string
}

// New creates a gateway. The session id is minted once per gateway instance
// and echoed on replies unless the client supplies its own.
func New(
	log *slog.Logger,
	bridge *protocol.Bridge,
	reg *registry.Registry,
	dash *dashboard.Renderer,
	tokens []string,
) *Gateway {
	return &Gateway{
		log:       log.With("component", "gateway"),
		bridge:    bridge,
		registry:  reg,
		dashboard: dash,
		session:   ulid.Make().String(),
		tokens:    tokens,
	}
}

// Handler builds the full HTTP handler, auth-protecting the protocol and API
// surfaces. The dashboard and health endpoints stay open.
func (g *Gateway) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /mcp", g.handleMCP)
	protected.HandleFunc("GET /api/tools", g.handleListTools)
	protected.HandleFunc("GET /api/tools/describe", g.handleDescribeTools)
	protected.HandleFunc("POST /api/tools/call", g.handleCallTool)

	mux := http.NewServeMux()
	mux.Handle("/mcp", auth.Middleware(g.log, g.tokens)(protected))
	mux.Handle("/api/", auth.Middleware(g.log, g.tokens)(protected))
	mux.HandleFunc("GET /healthz", g.handleHealth)
	mux.HandleFunc("GET /{$}", g.handleDashboard)

	return mux
}

// handleMCP processes one JSON-RPC message per POST.
func (g *Gateway) handleMCP(w http.ResponseWriter, r *http.Request) {
	g.echoSession(w, r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		g.writeJSONError(w, http.StatusBadRequest, nil, jsonrpc.CodeParseError, "cannot read body")

		return
	}

	msg, err := jsonrpc.Parse(body)
	if err != nil {
		g.log.Debug("Rejecting malformed message", "error", err)
		g.writeJSONError(w, http.StatusBadRequest, nil, jsonrpc.CodeParseError, "parse error")

		return
	}

	// Notifications are fire-and-forget: submit and acknowledge immediately,
	// without observing whether the consumer ever processes them.
	if msg.IsNotification() {
		if err := g.bridge.Notify(r.Context(), msg); err != nil {
			g.log.Warn("Notification submission failed", "method", msg.Method, "error", err)
		}

		w.Header().Set("Content-Type", contentTypeEventStream)
		w.WriteHeader(http.StatusAccepted)

		return
	}

	reply, err := g.bridge.RoundTrip(r.Context(), msg)

	switch {
	case errors.Is(err, gateerrors.ErrRequestTimeout):
		g.writeReply(w, http.StatusGatewayTimeout, reply)

	case err != nil:
		g.log.Error("Request dispatch failed", "method", msg.Method, "error", err)
		g.writeJSONError(w, http.StatusInternalServerError, msg.ID, jsonrpc.CodeInternalError, "internal error")

	default:
		g.writeReply(w, http.StatusOK, reply)
	}
}

// writeReply frames a JSON-RPC reply as a single SSE message event.
func (g *Gateway) writeReply(w http.ResponseWriter, status int, reply *jsonrpc.Message) {
	data, err := json.Marshal(reply)
	if err != nil {
		g.writeJSONError(w, http.StatusInternalServerError, reply.ID, jsonrpc.CodeInternalError, "marshal reply")

		return
	}

	w.Header().Set("Content-Type", contentTypeEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := writeEventFrame(w, "message", string(data)); err != nil {
		g.log.Debug("Client went away mid-reply", "error", err)
	}
}

// writeJSONError writes a plain (non-SSE) JSON-RPC error envelope.
func (g *Gateway) writeJSONError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonrpc.NewError(id, code, message))
}

func (g *Gateway) echoSession(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get(sessionHeader)
	if session == "" {
		session = g.session
	}

	w.Header().Set(sessionHeader, session)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (g *Gateway) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := g.dashboard.Render(w); err != nil {
		g.log.Error("Dashboard render failed", "error", err)
	}
}
