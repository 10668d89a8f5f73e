// Package registry holds the in-process catalog of tool units.
//
// The registry's central invariant is uniform failure containment: Execute
// always returns an execution result, converting missing tools, handler
// errors, and handler panics into results flagged isError. A misbehaving
// tool can never terminate the calling request path.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voxline/toolgate/internal/tool"
)

// Registry is the catalog mapping tool names to units.
type Registry struct {
	log *slog.Logger

	mu    sync.RWMutex
	units map[string]*tool.Unit
}

// New creates an empty registry.
func New(log *slog.Logger) *Registry {
	return &Registry{
		log:   log.With("component", "registry"),
		units: make(map[string]*tool.Unit, 8),
	}
}

// Register inserts a unit, overwriting any prior entry with the same name.
// Overwrites are last-write-wins and surface as a warning, not an error;
// idempotent re-registration is a supported pattern.
func (r *Registry) Register(unit *tool.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[unit.Name]; exists {
		r.log.Warn("Tool already registered, overwriting", "tool", unit.Name)
	}

	r.units[unit.Name] = unit
}

// Unregister removes a unit and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.units[name]
	delete(r.units, name)

	return exists
}

// Get returns the unit for a name, if registered.
func (r *Registry) Get(name string) (*tool.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unit, exists := r.units[name]

	return unit, exists
}

// List returns all registered units. Order is not meaningful.
func (r *Registry) List() []*tool.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]*tool.Unit, 0, len(r.units))
	for _, unit := range r.units {
		units = append(units, unit)
	}

	return units
}

// Execute looks up a unit by name and invokes it inside a failure boundary.
//
// A missing tool, a handler error, a nil handler result, and a handler panic
// all produce a normal result with IsError set; Execute itself never returns
// an error and never panics through.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *mcp.CallToolResult) {
	unit, exists := r.Get(name)
	if !exists {
		r.log.Warn("Tool not found", "tool", name)

		return tool.Errorf("tool not found: %s", name)
	}

	defer func() {
		if v := recover(); v != nil {
			r.log.Error("Tool panicked", "tool", name, "panic", fmt.Sprint(v))

			result = tool.Errorf("tool %s panicked: %v", name, v)
		}
	}()

	res, err := unit.Handler(ctx, args)
	if err != nil {
		r.log.Warn("Tool returned error", "tool", name, "error", err)

		return tool.Errorf("tool %s failed: %v", name, err)
	}

	if res == nil {
		return tool.Errorf("tool %s returned no result", name)
	}

	return res
}
