package model

import (
	"slices"
	"strings"
	"sync"
)

// Registry stores resolved model instances. Services read it on every call
// while the config watcher replaces its contents.
type Registry struct {
	models map[string]*ModelInstance
	mu     sync.RWMutex
}

// NewRegistry creates a new model registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*ModelInstance),
	}
}

// Set adds or replaces a model instance.
func (r *Registry) Set(instance *ModelInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[instance.ID] = instance
}

// Replace swaps the whole set of instances at once and returns the IDs
// that were dropped, sorted.
func (r *Registry) Replace(instances []*ModelInstance) []string {
	next := make(map[string]*ModelInstance, len(instances))
	for _, instance := range instances {
		next[instance.ID] = instance
	}

	r.mu.Lock()
	prev := r.models
	r.models = next
	r.mu.Unlock()

	var removed []string
	for id := range prev {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	slices.Sort(removed)

	return removed
}

// Get returns the model instance with the given ID.
func (r *Registry) Get(id string) (*ModelInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.models[id]
	return instance, ok
}

// List returns all model instances ordered by ID.
func (r *Registry) List() []*ModelInstance {
	r.mu.RLock()
	instances := make([]*ModelInstance, 0, len(r.models))
	for _, instance := range r.models {
		instances = append(instances, instance)
	}
	r.mu.RUnlock()

	slices.SortFunc(instances, func(a, b *ModelInstance) int {
		return strings.Compare(a.ID, b.ID)
	})

	return instances
}

// Delete removes the model instance with the given ID.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.models, id)
}
