package pdfexport

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const devToolsPrefix = "devtools:"

// Registry holds named surfaces owned by the host. A surface resolved for an
// export is pinned until its release func runs, and Unregister waits for all
// pins, so a surface cannot be torn down under a pending export.
type Registry struct {
	mu       sync.Mutex
	cond     *sync.Cond
	surfaces map[string]*registryEntry
}

type registryEntry struct {
	surface Surface
	pins    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{surfaces: make(map[string]*registryEntry)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register adds a surface under name.
func (r *Registry) Register(name string, s Surface) error {
	if name == "" || strings.HasPrefix(name, devToolsPrefix) {
		return fmt.Errorf("invalid surface name %q", name)
	}
	if s == nil {
		return fmt.Errorf("surface %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.surfaces[name]; ok {
		return fmt.Errorf("surface %q already registered", name)
	}
	r.surfaces[name] = &registryEntry{surface: s}
	return nil
}

// Unregister removes name once no export holds it. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		entry, ok := r.surfaces[name]
		if !ok {
			return
		}
		if entry.pins == 0 {
			delete(r.surfaces, name)
			r.cond.Broadcast()
			return
		}
		r.cond.Wait()
	}
}

// Resolve maps a reference to a surface. References of the form
// "devtools:<id>" name a Chromium target and are not pinned; anything else
// must be a registered name. release must be called exactly once.
func (r *Registry) Resolve(ref string) (Surface, func(), error) {
	if id, ok := strings.CutPrefix(ref, devToolsPrefix); ok {
		if id == "" {
			return nil, nil, registrationFailed(fmt.Errorf("empty devtools target"))
		}
		return DevToolsTarget{ID: id}, func() {}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.surfaces[ref]
	if !ok {
		return nil, nil, registrationFailed(fmt.Errorf("unknown surface %q", ref))
	}
	entry.pins++

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			entry.pins--
			r.cond.Broadcast()
			r.mu.Unlock()
		})
	}
	return entry.surface, release, nil
}

// Names lists registered surface names in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.surfaces))
	for name := range r.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
