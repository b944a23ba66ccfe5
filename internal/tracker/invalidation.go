package tracker

import "sync"

// CacheName identifies one of the reloadable views derived from the data service.
type CacheName string

const (
	CacheCatalog     CacheName = "catalog"
	CacheSuggestions CacheName = "suggestions"
	CacheQuickAdd    CacheName = "quick-add"
)

// RefreshOrder is the dependency order in which dirty caches are reloaded.
// Suggestions are derived from the catalog, so the catalog goes first.
var RefreshOrder = []CacheName{CacheCatalog, CacheSuggestions, CacheQuickAdd}

// Invalidation tracks which caches must be reloaded before their next read.
// Every MarkDirty bumps the cache's generation, so a reload that raced with a
// newer invalidation does not clear it.
type Invalidation struct {
	mu         sync.Mutex
	dirty      map[CacheName]bool
	generation map[CacheName]uint64
}

// NewInvalidation returns a tracker with every cache dirty, so first reads load.
func NewInvalidation() *Invalidation {
	inv := &Invalidation{
		dirty:      make(map[CacheName]bool),
		generation: make(map[CacheName]uint64),
	}
	inv.MarkDirty(RefreshOrder...)
	return inv
}

// MarkDirty flags the named caches for reload.
func (i *Invalidation) MarkDirty(names ...CacheName) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, n := range names {
		i.dirty[n] = true
		i.generation[n]++
	}
}

// Generation is the number of times name has been marked dirty.
func (i *Invalidation) Generation(name CacheName) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.generation[name]
}

// Clear records that name was reloaded as of generation gen. It reports false,
// leaving the cache dirty, when name was invalidated again since gen.
func (i *Invalidation) Clear(name CacheName, gen uint64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.generation[name] != gen {
		return false
	}
	delete(i.dirty, name)
	return true
}

// Pending lists dirty caches in RefreshOrder.
func (i *Invalidation) Pending() []CacheName {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []CacheName
	for _, n := range RefreshOrder {
		if i.dirty[n] {
			out = append(out, n)
		}
	}
	return out
}
