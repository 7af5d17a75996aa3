package dispatch

import (
	"slices"
	"sort"
	"sync"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

// Registry maps tool names to descriptors. It is filled during startup and
// only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*ToolDescriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*ToolDescriptor)}
}

// Register adds desc. Names must be unique and every schema must declare
// user_id as a required string.
func (r *Registry) Register(desc ToolDescriptor) error {
	name := desc.Tool.Name
	if name == "" {
		return failure.Internal(failure.ReasonInvariant, "tool descriptor has no name")
	}
	if desc.Handler == nil {
		return failure.Internal(failure.ReasonInvariant, "tool %s has no handler", name)
	}
	if !declaresUserID(desc) {
		return failure.Internal(failure.ReasonInvariant,
			"tool %s must declare %s as a required string argument", name, UserIDArg)
	}
	if desc.Confirm != nil {
		if _, ok := desc.Tool.InputSchema.Properties[ConfirmArg]; !ok {
			return failure.Internal(failure.ReasonInvariant,
				"tool %s has a confirmation rule but no %s argument", name, ConfirmArg)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return failure.Internal(failure.ReasonDuplicateTool, "tool %s is already registered", name)
	}
	desc.RequiredScopes = slices.Clone(desc.RequiredScopes)
	r.tools[name] = &desc
	return nil
}

func declaresUserID(desc ToolDescriptor) bool {
	schema := desc.Tool.InputSchema
	if !slices.Contains(schema.Required, UserIDArg) {
		return false
	}
	prop, ok := schema.Properties[UserIDArg].(map[string]any)
	if !ok {
		return false
	}
	return prop["type"] == "string"
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]
	return d, ok
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []*ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ToolDescriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tool.Name < out[j].Tool.Name
	})
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
