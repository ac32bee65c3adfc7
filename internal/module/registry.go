package module

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the module set for the lifetime of the process. It is
// constructed once at startup and passed by reference to consumers, so no
// package relies on import-time side effects. Reload swaps the snapshot
// after admin edits.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Module
	ordered []*Module
	logger  *slog.Logger
}

func NewRegistry(modules []*Module, logger *slog.Logger) *Registry {
	r := &Registry{logger: logger}
	r.replace(modules)
	return r
}

func (r *Registry) replace(modules []*Module) {
	byName := make(map[string]*Module, len(modules))
	ordered := make([]*Module, 0, len(modules))
	for _, m := range modules {
		byName[m.Name] = m
		ordered = append(ordered, m)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	r.mu.Lock()
	r.byName = byName
	r.ordered = ordered
	r.mu.Unlock()
}

// Reload replaces the snapshot wholesale.
func (r *Registry) Reload(modules []*Module) {
	r.replace(modules)
	r.logger.Info("module registry reloaded", "modules", len(modules))
}

func (r *Registry) Get(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// Active returns active modules in display order.
func (r *Registry) Active() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Module, 0, len(r.ordered))
	for _, m := range r.ordered {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out
}

// All returns every module regardless of active state.
func (r *Registry) All() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Module, len(r.ordered))
	copy(out, r.ordered)
	return out
}
