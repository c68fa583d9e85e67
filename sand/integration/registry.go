package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Hardware subsystems reserved for future abstraction layers.
const (
	SubsystemIsooptic   = "isooptic"
	SubsystemSpintronic = "spintronic"
)

// Registry fans an integration request out to named subsystems.
type Registry struct {
	mu      sync.RWMutex
	members map[string]Integrator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: map[string]Integrator{}}
}

// NewHardwareRegistry returns a registry with the hardware placeholders registered as Noop.
func NewHardwareRegistry() *Registry {
	r := NewRegistry()
	r.Register(SubsystemIsooptic, Noop)
	r.Register(SubsystemSpintronic, Noop)
	return r
}

// Register adds or replaces a subsystem.
func (r *Registry) Register(name string, i Integrator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[name] = i
}

// Names lists the registered integrator names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Integrate runs every subsystem in name order. All subsystems run even if
// one fails; failures are joined and prefixed with the subsystem name.
func (r *Registry) Integrate(ctx context.Context) error {
	r.mu.RLock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	members := make(map[string]Integrator, len(r.members))
	for k, v := range r.members {
		members[k] = v
	}
	r.mu.RUnlock()
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := members[name].Integrate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
