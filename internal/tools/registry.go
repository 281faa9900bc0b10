package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// probeConcurrency bounds parallel PATH lookups during discovery.
const probeConcurrency = 8

// Registry is the immutable name → descriptor mapping built once by
// Discover. It has no mutators, so concurrent reads need no locking.
type Registry struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

// Discover probes every catalog entry and returns a registry holding the
// available ones in catalog order. The raw command entry is always kept.
func Discover(ctx context.Context, catalog *Catalog, probe Probe, logger *zap.Logger) (*Registry, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	available := make([]bool, len(catalog.Tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)

	for i, entry := range catalog.Tools {
		if entry.Command == RawCommand {
			available[i] = true
			continue
		}
		i, entry := i, entry
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			available[i] = probe.IsAvailable(entry.Command)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tool discovery aborted: %w", err)
	}

	descriptors := make([]*Descriptor, 0, len(catalog.Tools))
	for i, entry := range catalog.Tools {
		if !available[i] {
			logger.Debug("Tool unavailable, skipping",
				zap.String("tool", entry.Name),
				zap.String("binary", entry.Command))
			continue
		}
		descriptors = append(descriptors, NewDescriptor(entry.Name, entry.Command, entry.Params, entry.Category))
	}

	reg := NewRegistry(descriptors...)
	logger.Info("Tool discovery complete",
		zap.Int("configured", len(catalog.Tools)),
		zap.Int("available", reg.Count()))
	return reg, nil
}

// NewRegistry builds a registry from descriptors. Later duplicates of a
// name are ignored.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{
		ordered: make([]*Descriptor, 0, len(descriptors)),
		byName:  make(map[string]*Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, exists := r.byName[d.Name]; exists {
			continue
		}
		r.ordered = append(r.ordered, d)
		r.byName[d.Name] = d
	}
	return r
}

// Get returns a descriptor by name, or nil if not found.
func (r *Registry) Get(name string) *Descriptor {
	return r.byName[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup returns the descriptor or ErrToolNotFound.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d := r.byName[name]
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return d, nil
}

// All returns all descriptors in catalog order.
func (r *Registry) All() []*Descriptor {
	result := make([]*Descriptor, len(r.ordered))
	copy(result, r.ordered)
	return result
}

// Names returns all registered tool names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		names[i] = d.Name
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.ordered)
}
