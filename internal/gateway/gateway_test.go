package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/voxline/toolgate/internal/channel"
	"github.com/voxline/toolgate/internal/dashboard"
	"github.com/voxline/toolgate/internal/dispatch"
	"github.com/voxline/toolgate/internal/jsonrpc"
	"github.com/voxline/toolgate/internal/protocol"
	"github.com/voxline/toolgate/internal/registry"
	"github.com/voxline/toolgate/internal/tool"
	"github.com/voxline/toolgate/internal/tools"
)

type fixture struct {
	gateway *Gateway
	handler http.Handler
}

// newFixture wires a full in-process stack: registry, channel, dispatch,
// bridge, gateway. When dispatching is false the server endpoint stays
// unattached, so requests never see a reply and the timeout path fires.
func newFixture(t *testing.T, dispatching bool, timeout time.Duration, tokens []string) *fixture {
	t.Helper()

	log := slog.Default()

	reg := registry.New(log)
	for _, unit := range tools.Calculator() {
		reg.Register(unit)
	}

	reg.Register(&tool.Unit{
		Name:        "boom",
		Description: "always panics",
		Handler: func(_ context.Context, _ map[string]any) (*mcp.CallToolResult, error) {
			panic("boom")
		},
	})

	ch := channel.New(log)
	t.Cleanup(ch.Close)

	if dispatching {
		dispatch.New(log, reg, ch.Server(), "toolgate", "test")
	}

	bridge := protocol.NewWithTimeout(log, ch.Client(), timeout)

	dash, err := dashboard.New(reg, "toolgate")
	require.NoError(t, err)

	g := New(log, bridge, reg, dash, tokens)

	return &fixture{gateway: g, handler: g.Handler()}
}

func (f *fixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

// decodeFrame extracts the JSON payload from a single SSE message frame.
func decodeFrame(t *testing.T, body string) *jsonrpc.Message {
	t.Helper()

	require.True(t, strings.HasPrefix(body, "event: message\n"), "expected SSE frame, got %q", body)

	var data strings.Builder

	for _, line := range strings.Split(body, "\n") {
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			data.WriteString(rest)
		}
	}

	msg, err := jsonrpc.Parse([]byte(data.String()))
	require.NoError(t, err)

	return msg
}

func TestRoundTripAddYieldsFive(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"add","arguments":{"a":2,"b":3}}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Header().Get("Mcp-Session-Id"))

	reply := decodeFrame(t, rec.Body.String())
	require.Equal(t, json.RawMessage(`1`), reply.ID)

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}

	require.NoError(t, json.Unmarshal(reply.Result, &result))
	require.False(t, result.IsError)
	require.Equal(t, "5", result.Content[0].Text)
}

func TestNotificationYields202Empty(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Empty(t, rec.Body.String())
}

func TestNotificationYields202EvenWhenConsumerMissing(t *testing.T) {
	// No dispatcher attached: the consumer side will drop the message.
	f := newFixture(t, false, protocol.DefaultTimeout, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestMalformedBodyYields400ParseError(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var reply jsonrpc.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Error)
	require.Equal(t, jsonrpc.CodeParseError, reply.Error.Code)
}

func TestUnansweredRequestYields504WithOriginalID(t *testing.T) {
	f := newFixture(t, false, 30*time.Millisecond, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","id":42,"method":"tools/list"}`)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	reply := decodeFrame(t, rec.Body.String())
	require.Equal(t, json.RawMessage(`42`), reply.ID)
	require.NotNil(t, reply.Error)
	require.Equal(t, jsonrpc.CodeInternalError, reply.Error.Code)
}

func TestToolPanicIsContainedInBand(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"boom"}}`)

	require.Equal(t, http.StatusOK, rec.Code, "tool faults are data, not protocol faults")

	reply := decodeFrame(t, rec.Body.String())
	require.Nil(t, reply.Error)
	require.Contains(t, string(reply.Result), "boom")
}

func TestSessionHeaderEchoesClientValue(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"x"}`))
	req.Header.Set("Mcp-Session-Id", "client-chosen")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, "client-chosen", rec.Header().Get("Mcp-Session-Id"))
}

func TestListToolsAPI(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Tools []struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
		} `json:"tools"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.NotEmpty(t, listing.Tools)
}

func TestDescribeToolsUsesInputSchemaKey(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/tools/describe", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"input_schema"`)
}

func TestCallToolAPIMapsIsErrorTo400(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, nil)

	ok := f.post(t, "/api/tools/call", `{"name":"add","arguments":{"a":2,"b":3}}`)
	require.Equal(t, http.StatusOK, ok.Code)
	require.Contains(t, ok.Body.String(), `"5"`)

	legacy := f.post(t, "/api/tools/call", `{"name":"add","args":{"a":1,"b":1}}`)
	require.Equal(t, http.StatusOK, legacy.Code)

	bad := f.post(t, "/api/tools/call", `{"name":"divide","arguments":{"a":1,"b":0}}`)
	require.Equal(t, http.StatusBadRequest, bad.Code)
	require.Contains(t, bad.Body.String(), "division by zero")

	missing := f.post(t, "/api/tools/call", `{"arguments":{}}`)
	require.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestAuthProtectsProtocolAndAPI(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, []string{"secret"})

	rec := f.post(t, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	req.Header.Set("Authorization", "Bearer secret")

	authed := httptest.NewRecorder()
	f.handler.ServeHTTP(authed, req)
	require.Equal(t, http.StatusOK, authed.Code)
}

func TestDashboardAndHealthStayOpen(t *testing.T) {
	f := newFixture(t, true, protocol.DefaultTimeout, []string{"secret"})

	health := httptest.NewRecorder()
	f.handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, health.Code)

	dash := httptest.NewRecorder()
	f.handler.ServeHTTP(dash, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, dash.Code)
	require.Contains(t, dash.Body.String(), "add")
}
