// Package registry holds the process-wide Service/Route catalog and runs
// the background health-check loop that keeps each Service's HealthStatus
// current. The catalog lives behind a single atomically-swapped snapshot
// (copy-on-write), since it is read on every gateway request and written
// only by the health loop.
package registry

import (
	"sync/atomic"

	"github.com/lepista/mycelium/internal/domain"
)

// Registry is safe for concurrent reads from many gateway goroutines and
// concurrent writes from the health-check loop.
type Registry struct {
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	services []domain.Service
	byName   map[string]int // service name -> index into services
}

// New builds a Registry seeded with the given services (typically loaded
// from the `routes` config block at startup).
func New(services []domain.Service) *Registry {
	r := &Registry{}
	r.Replace(services)
	return r
}

// Replace atomically swaps in a new full service list. Used at startup and
// by any future config-reload path; the health loop instead mutates one
// service's HealthStatus via UpdateHealth to avoid clobbering concurrent
// config reloads.
func (r *Registry) Replace(services []domain.Service) {
	cp := make([]domain.Service, len(services))
	copy(cp, services)
	byName := make(map[string]int, len(cp))
	for i, s := range cp {
		byName[s.Name] = i
	}
	r.snapshot.Store(&snapshot{services: cp, byName: byName})
}

// All returns the current service snapshot. Callers must not mutate the
// returned slice's elements' Routes in place.
func (r *Registry) All() []domain.Service {
	snap := r.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.services
}

// Get returns the named service and whether it exists.
func (r *Registry) Get(name string) (domain.Service, bool) {
	snap := r.snapshot.Load()
	if snap == nil {
		return domain.Service{}, false
	}
	idx, ok := snap.byName[name]
	if !ok {
		return domain.Service{}, false
	}
	return snap.services[idx], true
}

// UpdateHealth copy-on-writes a new snapshot with serviceName's
// HealthStatus replaced, leaving every other service's identity (and its
// slice index) untouched. Safe to call concurrently with Get/All readers
// and with other UpdateHealth calls (the atomic.Pointer swap is the only
// synchronization point).
func (r *Registry) UpdateHealth(serviceName string, status domain.HealthStatus) {
	snap := r.snapshot.Load()
	if snap == nil {
		return
	}
	idx, ok := snap.byName[serviceName]
	if !ok {
		return
	}
	cp := make([]domain.Service, len(snap.services))
	copy(cp, snap.services)
	cp[idx].HealthStatus = status
	r.snapshot.Store(&snapshot{services: cp, byName: snap.byName})
}
