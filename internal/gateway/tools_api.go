package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
)

// toolListing is the full discovery projection.
type toolListing struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Schema      *jsonschema.Schema `json:"schema"`
}

// toolDescription is the simplified protocol-aligned projection.
type toolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// callRequest accepts both "arguments" and the legacy "args" spelling.
type callRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Args      map[string]any `json:"args"`
}

func (g *Gateway) handleListTools(w http.ResponseWriter, _ *http.Request) {
	units := g.registry.List()

	listing := make([]toolListing, 0, len(units))
	for _, unit := range units {
		listing = append(listing, toolListing{
			Name:        unit.Name,
			Description: unit.Description,
			Schema:      unit.Schema,
		})
	}

	g.writeJSON(w, http.StatusOK, map[string]any{"tools": listing})
}

func (g *Gateway) handleDescribeTools(w http.ResponseWriter, _ *http.Request) {
	units := g.registry.List()

	listing := make([]toolDescription, 0, len(units))
	for _, unit := range units {
		listing = append(listing, toolDescription{
			Name:        unit.Name,
			Description: unit.Description,
			InputSchema: unit.Schema,
		})
	}

	g.writeJSON(w, http.StatusOK, map[string]any{"tools": listing})
}

// handleCallTool invokes a tool directly, outside the JSON-RPC envelope.
// Tool faults surface as the execution result with a 400 status, keeping one
// payload shape for success and failure.
func (g *Gateway) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": "invalid_body", "message": err.Error()},
		})

		return
	}

	if req.Name == "" {
		g.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"code": "invalid_body", "message": "missing tool name"},
		})

		return
	}

	args := req.Arguments
	if args == nil {
		args = req.Args
	}

	result := g.registry.Execute(r.Context(), req.Name, args)

	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}

	g.writeJSON(w, status, result)
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		g.log.Debug("Failed to encode response", "error", err)
	}
}
