package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/user/parley/pkg/llm"
)

// Tool defines the interface for an executable tool.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds registered tools and provides lookup.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions converts registered tools into validated LLM tool definitions,
// in name order.
func (r *Registry) Definitions() ([]llm.ToolDefinition, error) {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		def, err := llm.NewTool(t.Name(), t.Description(), t.Parameters())
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name(), err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
