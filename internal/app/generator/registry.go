package generator

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrGenerationNotFound is returned for an unknown or evicted generation id.
var ErrGenerationNotFound = errors.New("generation not found")

// Registry keeps generations in memory with thread-safe access.
// When full, the oldest generation is evicted.
type Registry struct {
	mu          sync.RWMutex
	generations map[string]*Generation
	order       []string
	maxSize     int
}

// NewRegistry creates a registry holding at most maxSize generations.
// A maxSize below one is treated as one.
func NewRegistry(maxSize int) *Registry {
	return &Registry{
		generations: make(map[string]*Generation),
		maxSize:     max(maxSize, 1),
	}
}

// Put stores g under a fresh id, which is written to g.ID and returned.
func (r *Registry) Put(g *Generation) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New().String()
	g.ID = id
	r.generations[id] = g
	r.order = append(r.order, id)

	for len(r.order) > r.maxSize {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.generations, oldest)
	}

	return id
}

// Get retrieves a generation by id.
func (r *Registry) Get(id string) (*Generation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generations[id]
	if !ok {
		return nil, errors.Wrapf(ErrGenerationNotFound, "id %q", id)
	}
	return g, nil
}

// Delete removes a generation and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.generations[id]; !ok {
		return false
	}
	delete(r.generations, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the number of stored generations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generations)
}
