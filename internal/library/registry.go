package library

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateFunction is returned when a mangled name is registered twice.
var ErrDuplicateFunction = errors.New("duplicate function")

// Registry holds every known function descriptor.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*FunctionDescriptor
}

func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]*FunctionDescriptor)}
}

// Register adds descriptors. Registration stops at the first duplicate.
func (r *Registry) Register(descs ...*FunctionDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range descs {
		key := d.MangledName()
		if _, exists := r.functions[key]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateFunction, key)
		}
		r.functions[key] = d
	}
	return nil
}

// Lookup finds a descriptor by mangled name.
func (r *Registry) Lookup(mangledName string) (*FunctionDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.functions[mangledName]
	return d, ok
}

// Functions returns all descriptors sorted by mangled name.
func (r *Registry) Functions() []*FunctionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*FunctionDescriptor, 0, len(r.functions))
	for _, d := range r.functions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MangledName() < out[j].MangledName()
	})
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functions)
}
