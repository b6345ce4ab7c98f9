package eval

import (
	"sync"

	"github.com/chazu/bceval/pkg/value"
)

// FieldCache maps a field's name and descriptor to the last value written.
type FieldCache struct {
	mu     sync.RWMutex
	fields map[string]value.Value
}

func newFieldCache() *FieldCache {
	return &FieldCache{fields: make(map[string]value.Value)}
}

// Get returns the cached value. An unwritten field reports false; a field
// explicitly holding null reports value.Null.
func (c *FieldCache) Get(name, desc string) (value.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.fields[name+desc]
	return v, ok
}

// Set overwrites the cached value.
func (c *FieldCache) Set(name, desc string, v value.Value) {
	c.mu.Lock()
	c.fields[name+desc] = v
	c.mu.Unlock()
}

// Len returns the number of cached fields.
func (c *FieldCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fields)
}

// FieldCacheManager owns the static caches, keyed by declaring class, and
// the instance caches, keyed by receiver identity. Evaluators sharing a
// manager share field state. Entries live until Reset.
type FieldCacheManager struct {
	mu        sync.RWMutex
	statics   map[string]*FieldCache
	instances map[value.Value]*FieldCache
}

// NewFieldCacheManager returns an empty manager.
func NewFieldCacheManager() *FieldCacheManager {
	return &FieldCacheManager{
		statics:   make(map[string]*FieldCache),
		instances: make(map[value.Value]*FieldCache),
	}
}

// Static returns the cache for owner's static fields, creating it on first use.
func (m *FieldCacheManager) Static(owner string) *FieldCache {
	m.mu.RLock()
	c, ok := m.statics[owner]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.statics[owner]; !ok {
		c = newFieldCache()
		m.statics[owner] = c
	}
	return c
}

// Instance returns the cache for receiver's fields, creating it on first
// use. Receivers are compared by identity.
func (m *FieldCacheManager) Instance(receiver value.Value) *FieldCache {
	m.mu.RLock()
	c, ok := m.instances[receiver]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.instances[receiver]; !ok {
		c = newFieldCache()
		m.instances[receiver] = c
	}
	return c
}

// Reset drops every cached field. Call it between unrelated sessions that
// share one manager.
func (m *FieldCacheManager) Reset() {
	m.mu.Lock()
	m.statics = make(map[string]*FieldCache)
	m.instances = make(map[value.Value]*FieldCache)
	m.mu.Unlock()
}

// Replace substitutes repl for every cached field value identical to old.
func (m *FieldCacheManager) Replace(old, repl value.Value) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.statics {
		c.replace(old, repl)
	}
	for _, c := range m.instances {
		c.replace(old, repl)
	}
}

func (c *FieldCache) replace(old, repl value.Value) {
	c.mu.Lock()
	for k, v := range c.fields {
		if v == old {
			c.fields[k] = repl
		}
	}
	c.mu.Unlock()
}
