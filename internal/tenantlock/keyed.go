// Package tenantlock serializes mutating operations per tenant. Every write
// path (new reading, bill generation, payment) reads the tenant's latest
// ledger state before deriving a new value, so writers for the same tenant
// must not interleave. Writers for different tenants proceed in parallel.
package tenantlock

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed is an in-process mutex set keyed by tenant id. Entries are reclaimed
// once the last holder releases, so the map does not grow with tenant count.
type Keyed struct {
	mu      sync.Mutex
	entries map[snowflake.ID]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[snowflake.ID]*entry)}
}

func (k *Keyed) Lock(tenantID snowflake.ID) {
	k.mu.Lock()
	e, ok := k.entries[tenantID]
	if !ok {
		e = &entry{}
		k.entries[tenantID] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *Keyed) Unlock(tenantID snowflake.ID) {
	k.mu.Lock()
	e, ok := k.entries[tenantID]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(k.entries, tenantID)
		}
	}
	k.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}

// WithLock runs fn while holding the tenant's lock.
func (k *Keyed) WithLock(tenantID snowflake.ID, fn func() error) error {
	k.Lock(tenantID)
	defer k.Unlock(tenantID)
	return fn()
}
