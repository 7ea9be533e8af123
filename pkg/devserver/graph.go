package devserver

import (
	"sort"
	"sync"
)

// moduleGraph caches loaded module code by resolved id. A load that
// started before an invalidation of the same id is not stored.
type moduleGraph struct {
	mu      sync.Mutex
	modules map[string]string
	// bumped on every invalidation of an id
	versions map[string]uint64
}

func newModuleGraph() *moduleGraph {
	return &moduleGraph{
		modules:  map[string]string{},
		versions: map[string]uint64{},
	}
}

// Invalidate implements host.ModuleGraph
func (g *moduleGraph) Invalidate(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.versions[id]++
	if _, ok := g.modules[id]; !ok {
		return false
	}
	delete(g.modules, id)
	return true
}

func (g *moduleGraph) get(id string) (code string, version uint64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	code, ok = g.modules[id]
	return code, g.versions[id], ok
}

// store caches code unless id was invalidated since version was read
func (g *moduleGraph) store(id string, version uint64, code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.versions[id] != version {
		return false
	}
	g.modules[id] = code
	return true
}

func (g *moduleGraph) ids() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
