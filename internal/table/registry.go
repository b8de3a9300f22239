// Package table maps table names to the record stores that persist them.
package table

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ryanbastic/go-gardenledger/internal/recordstore"
)

// ErrUnknownTable is returned when no store is registered under a name.
var ErrUnknownTable = errors.New("unknown table")

// Registry maps table names to record stores.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*recordstore.Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*recordstore.Store)}
}

// Register associates a table name with a store, replacing any previous one.
func (r *Registry) Register(name string, store *recordstore.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[name] = store
}

// StoreFor returns the store registered under name.
func (r *Registry) StoreFor(name string) (*recordstore.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return s, nil
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
