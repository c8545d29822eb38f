package module

import (
	"sort"
	"sync"
)

// process wide registry filled by the composition root
var (
	mu  sync.RWMutex
	reg = map[string]Module{}
)

// Register stores m under its name, replacing any earlier module with that name
func Register(m Module) {
	mu.Lock()
	reg[m.Name()] = m
	mu.Unlock()
}

// PortsAs finds a T in the port set of the module registered under name, see PortsOf
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	m, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	return PortsOf[T](m)
}

// Names lists registered module names in sorted order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]Module{}
	mu.Unlock()
}
