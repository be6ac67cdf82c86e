package adapter

import (
	"github.com/quench-dev/quench/internal/config"
)

// Registry holds the adapter set for a run, in fixed registration order.
// The first adapter claiming a file wins; no file is claimed twice.
type Registry struct {
	adapters []*Adapter
	fallback *Adapter
}

// NewRegistry builds the registry with classification globs resolved against
// the config. Registration order is fixed so claims are deterministic.
func NewRegistry(cfg *config.Config) *Registry {
	ordered := []*Adapter{
		newRustAdapter(),
		newGoAdapter(),
		newJavaScriptAdapter(),
		newPythonAdapter(),
		newShellAdapter(),
	}
	r := &Registry{fallback: newGenericAdapter().withConfig(cfg)}
	for _, a := range ordered {
		r.adapters = append(r.adapters, a.withConfig(cfg))
	}
	return r
}

// ForPath returns the adapter claiming the given root-relative path.
// claimed is false when only the generic fallback applies; such files are
// classified by the fallback's globs but are ineligible for scanning.
func (r *Registry) ForPath(relPath string) (a *Adapter, claimed bool) {
	for _, a := range r.adapters {
		if a.Claims(relPath) {
			return a, true
		}
	}
	return r.fallback, false
}

// ByName returns a registered adapter by language id.
func (r *Registry) ByName(name string) (*Adapter, bool) {
	if r.fallback.Name == name {
		return r.fallback, true
	}
	for _, a := range r.adapters {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// All returns the registered adapters in registration order, fallback last.
func (r *Registry) All() []*Adapter {
	out := make([]*Adapter, 0, len(r.adapters)+1)
	out = append(out, r.adapters...)
	return append(out, r.fallback)
}
