package storage

import (
	"time"

	"github.com/solbridge/solbridge/common/gopool"
)

// RunCleanup drops clean cache entries idle past the TTL and returns how
// many were removed. Dirty entries are never touched: they carry this
// invocation's writes and must not fall back to negative-cache reads.
func (s *Store) RunCleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, entry := range s.cache {
		if entry.dirty {
			continue
		}
		if now.Sub(entry.lastAccess) > s.cfg.CacheTTL {
			delete(s.cache, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug("storage cache entries expired", "count", removed, "remaining", len(s.cache))
	}
	return removed
}

// StartMaintenance launches the periodic TTL sweep on the shared worker
// pool. The owner must Close the store on invocation teardown.
func (s *Store) StartMaintenance() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	gopool.Submit(func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunCleanup()
			case <-stop:
				return
			}
		}
	})
}
