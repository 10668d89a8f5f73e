package tools

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voxline/toolgate/internal/tool"
)

// maxFetchBody bounds how much of a fetched document is returned.
const maxFetchBody = 64 * 1024

// Fetch returns a unit that retrieves a URL over HTTP GET.
//
// The client's timeout is the tool-level deadline: a slow upstream aborts
// just this call and surfaces as an isError result, independent of the
// protocol-level request timeout.
func Fetch(client *http.Client) *tool.Unit {
	return &tool.Unit{
		Name:        "fetch",
		Description: "Fetch the contents of a URL",
		Schema:      tool.SimpleSchema(map[string]string{"url": "string"}),
		Handler: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			rawURL, _ := args["url"].(string)
			if rawURL == "" {
				return tool.Errorf("parameter url is required"), nil
			}

			parsed, err := url.Parse(rawURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				return tool.Errorf("invalid url: %s", rawURL), nil
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return tool.Errorf("build request: %v", err), nil
			}

			resp, err := client.Do(req)
			if err != nil {
				return tool.Errorf("fetch failed: %v", err), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
			if err != nil {
				return tool.Errorf("read response: %v", err), nil
			}

			if resp.StatusCode >= http.StatusBadRequest {
				return tool.Errorf("fetch failed: %s returned %d", rawURL, resp.StatusCode), nil
			}

			return tool.TextResult(strings.TrimSpace(string(body))), nil
		},
	}
}
