package offload

import (
	"sort"
	"sync"

	"github.com/ygrebnov/errorc"
)

// Capability produces a Descriptor for one named offloadable operation,
// parameterized by the request input it should operate on.
type Capability[R any] func(input string) Descriptor[R]

// Catalog is an explicit registration table mapping a name to a
// Capability. It replaces runtime discovery of offloadable operations:
// hosts register every capability once at startup and resolve by name on
// the request path.
type Catalog[R any] struct {
	mu           sync.RWMutex
	capabilities map[string]Capability[R]
}

// NewCatalog returns an empty Catalog.
func NewCatalog[R any]() *Catalog[R] {
	return &Catalog[R]{capabilities: make(map[string]Capability[R])}
}

// Register adds a named capability. Registering the same name twice
// returns ErrDuplicateCapability; overwriting a live capability is
// always a configuration error.
func (c *Catalog[R]) Register(name string, capability Capability[R]) error {
	if capability == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "capability must not be nil"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.capabilities[name]; exists {
		return errorc.With(ErrDuplicateCapability, errorc.String("name", name))
	}
	c.capabilities[name] = capability
	return nil
}

// Resolve returns the capability registered under name, or
// ErrUnknownCapability.
func (c *Catalog[R]) Resolve(name string) (Capability[R], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	capability, ok := c.capabilities[name]
	if !ok {
		return nil, errorc.With(ErrUnknownCapability, errorc.String("name", name))
	}
	return capability, nil
}

// Names returns the registered capability names in sorted order.
func (c *Catalog[R]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.capabilities))
	for name := range c.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
