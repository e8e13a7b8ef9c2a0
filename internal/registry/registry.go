// Package registry keeps parsed header sets behind opaque integer handles so callers can
// query them later without re-parsing.
package registry

import (
	"sync"

	"github.com/danmuck/edgeparse/internal/headers"
)

// Handle identifies a registered header set. Zero is never a valid handle.
type Handle int64

const DefaultCapacity = 1000

type Config struct {
	Capacity int
	Headers  headers.Limits
}

func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Headers:  headers.DefaultLimits(),
	}
}

type Stats struct {
	Capacity int
	Live     int
	Free     int
}

// Registry is a fixed-size slot table with free-list reuse. Handles run from 1 to Capacity.
// One mutex guards the table and the free list.
type Registry struct {
	mu      sync.Mutex
	slots   []*headers.Set
	free    []int
	next    int
	live    int
	headers headers.Limits
}

func New(cfg Config) *Registry {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Registry{
		slots:   make([]*headers.Set, cfg.Capacity+1),
		free:    make([]int, 0, cfg.Capacity),
		headers: cfg.Headers,
	}
}

func (r *Registry) capacity() int {
	return len(r.slots) - 1
}

// Register stores set and returns its handle, or 0 when set is nil or every slot is taken.
func (r *Registry) Register(set *headers.Set) Handle {
	if set == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := 0
	switch {
	case len(r.free) > 0:
		idx = r.free[len(r.free)-1]
		r.free = r.free[:len(r.free)-1]
	case r.next < r.capacity():
		r.next++
		idx = r.next
	default:
		for i := 1; i <= r.capacity(); i++ {
			if r.slots[i] == nil {
				idx = i
				break
			}
		}
	}
	if idx == 0 {
		return 0
	}
	r.slots[idx] = set
	r.live++
	return Handle(idx)
}

// ParseAndRegister parses a raw header block and registers the result.
func (r *Registry) ParseAndRegister(data []byte) Handle {
	return r.Register(headers.ParseWithLimits(data, r.headers))
}

// Lookup returns the first value of name in the set behind h.
func (r *Registry) Lookup(h Handle, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.slot(h)
	if set == nil {
		return "", false
	}
	return set.Get(name)
}

// Set returns the header set behind h, or nil.
func (r *Registry) Set(h Handle) *headers.Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot(h)
}

// Release frees the slot behind h. Unknown or already released handles are ignored.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slot(h) == nil {
		return
	}
	r.slots[h] = nil
	r.live--
	if len(r.free) < r.capacity() {
		r.free = append(r.free, int(h))
	}
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Capacity: r.capacity(), Live: r.live, Free: len(r.free)}
}

func (r *Registry) slot(h Handle) *headers.Set {
	if h <= 0 || int64(h) > int64(r.capacity()) {
		return nil
	}
	return r.slots[h]
}
