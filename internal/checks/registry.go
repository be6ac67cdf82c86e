// Package checks holds the built-in quality checks and their registry.
package checks

import (
	"sort"
	"sync"

	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
)

// Factory builds a check bound to the run's result cache. The store may be
// nil when caching is disabled.
type Factory func(store *cache.Store) check.Check

var (
	registryMu sync.RWMutex
	factories  []Factory
)

// Register adds a check factory. Called from init in each check's file.
func Register(f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories = append(factories, f)
}

// Build instantiates every registered check, sorted by name so execution and
// reporting order never depend on registration order.
func Build(store *cache.Store) []check.Check {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]check.Check, 0, len(factories))
	for _, f := range factories {
		out = append(out, f(store))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
