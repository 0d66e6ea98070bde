package job

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// Builder decodes a raw JSON payload into a Call. The typed Definition[T]
// is converted to a Builder at registration time.
type Builder func(payload []byte) (Call, error)

// Registry maps job names to builders.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// RegisterDefinition registers a typed job definition. Registering a name
// twice replaces the earlier definition.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T Args](r *Registry, def *Definition[T]) {
	build := func(payload []byte) (Call, error) {
		var args T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &args); err != nil {
				return Call{}, fmt.Errorf("decode payload for job %q: %w", def.Name, err)
			}
		}
		return def.Call(args), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[def.Name] = build
}

// Get returns the builder for the given job name.
func (r *Registry) Get(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	return b, ok
}

// Names returns all registered job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
