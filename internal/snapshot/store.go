// Package snapshot holds the single shared record of the latest known
// readings.
package snapshot

import (
	"sync/atomic"

	"github.com/relabs-tech/climate_panel/internal/env"
)

// Store publishes snapshots by swapping one pointer, so a reader always
// sees values and extrema from the same sampling cycle.
type Store struct {
	cur atomic.Pointer[env.Snapshot]
}

// New returns a store holding the empty snapshot.
func New() *Store {
	s := &Store{}
	empty := env.EmptySnapshot()
	s.cur.Store(&empty)
	return s
}

// Update merges r and e into the current snapshot and publishes the
// result. It must only be called from one goroutine. It reports whether
// the snapshot changed.
func (s *Store) Update(r env.Reading, e env.Extrema) bool {
	if !r.TemperatureValid() && !r.HumidityValid() {
		return false
	}
	next := s.cur.Load().Merge(r, e)
	s.cur.Store(&next)
	return true
}

// Read returns the current snapshot.
func (s *Store) Read() env.Snapshot {
	return *s.cur.Load()
}
