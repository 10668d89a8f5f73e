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

// Search returns a unit that queries a configured search endpoint.
// The endpoint receives the query as the q parameter and is expected to
// return a text or JSON body, which is passed through verbatim.
func Search(client *http.Client, endpoint string) *tool.Unit {
	return &tool.Unit{
		Name:        "search",
		Description: "Search the web for a query",
		Schema: tool.ObjectSchema(map[string]tool.Property{
			"query": {
				Type:        "string",
				Description: "The search query",
				Required:    true,
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of results",
				Default:     5,
			},
		}),
		Handler: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return tool.Errorf("parameter query is required"), nil
			}

			if endpoint == "" {
				return tool.Errorf("search endpoint not configured, set %s", "TOOLGATE_SEARCH_ENDPOINT"), nil
			}

			u, err := url.Parse(endpoint)
			if err != nil {
				return tool.Errorf("invalid search endpoint: %v", err), nil
			}

			q := u.Query()
			q.Set("q", query)
			u.RawQuery = q.Encode()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return tool.Errorf("build request: %v", err), nil
			}

			resp, err := client.Do(req)
			if err != nil {
				return tool.Errorf("search failed: %v", err), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
			if err != nil {
				return tool.Errorf("read response: %v", err), nil
			}

			if resp.StatusCode >= http.StatusBadRequest {
				return tool.Errorf("search failed: upstream returned %d", resp.StatusCode), nil
			}

			return tool.TextResult(strings.TrimSpace(string(body))), nil
		},
	}
}
