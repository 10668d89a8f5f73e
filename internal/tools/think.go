package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voxline/toolgate/internal/store"
	"github.com/voxline/toolgate/internal/tool"
)

const thoughtPrefix = "thoughts/"

// Think returns a sequential-thinking scratchpad unit backed by the store.
// Each call appends a numbered thought; setting done summarizes the chain.
func Think(kv store.Store) *tool.Unit {
	var mu sync.Mutex // thought numbering is read-modify-write on the store

	return &tool.Unit{
		Name:        "think",
		Description: "Record a step in a sequential chain of thought",
		Schema: tool.ObjectSchema(map[string]tool.Property{
			"thought": {
				Type:        "string",
				Description: "The thought to record",
				Required:    true,
			},
			"done": {
				Type:        "boolean",
				Description: "Set when the chain is complete to get a summary",
				Default:     false,
			},
		}),
		Handler: func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			thought, _ := args["thought"].(string)
			if thought == "" {
				return tool.Errorf("parameter thought is required"), nil
			}

			done, _ := args["done"].(bool)

			mu.Lock()
			defer mu.Unlock()

			existing, err := kv.List(ctx, thoughtPrefix)
			if err != nil {
				return tool.Errorf("list thoughts: %v", err), nil
			}

			seq := len(existing) + 1

			key := fmt.Sprintf("%s%06d", thoughtPrefix, seq)
			if err := kv.Set(ctx, key, thought); err != nil {
				return tool.Errorf("store thought: %v", err), nil
			}

			if !done {
				return tool.TextResult(fmt.Sprintf("thought %d recorded", seq)), nil
			}

			keys, err := kv.List(ctx, thoughtPrefix)
			if err != nil {
				return tool.Errorf("list thoughts: %v", err), nil
			}

			var b strings.Builder

			fmt.Fprintf(&b, "chain of %d thoughts:\n", len(keys))

			for i, k := range keys {
				value, _, err := kv.Get(ctx, k)
				if err != nil {
					return tool.Errorf("read thought: %v", err), nil
				}

				fmt.Fprintf(&b, "%d. %s\n", i+1, value)
			}

			return tool.TextResult(strings.TrimSpace(b.String())), nil
		},
	}
}
