package memory

import (
	"time"

	"github.com/solbridge/solbridge/common/gopool"
	"github.com/solbridge/solbridge/params"
)

// CollectGarbage scans all pages and reclaims the ones that are safe to
// drop, returning how many were released. A page is collectable when it
// lies entirely beyond the high-water mark, or when it went cold (idle past
// the TTL, below the access floor) while holding only zero bytes: dropping
// a zero page is lossless because unallocated reads regenerate zero fill.
func (m *Memory) CollectGarbage() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	released := 0
	for idx, p := range m.pages {
		switch {
		case idx*params.MemoryPageSize >= m.size:
			// Entire page range was discarded via Shrink (or never inside
			// the addressable range to begin with).
		case now.Sub(p.lastAccess) > m.cfg.PageTTL && p.accessCount < m.cfg.AccessFloor && p.isZero():
		default:
			continue
		}
		delete(m.pages, idx)
		released++
	}
	if released > 0 {
		m.log.Debug("memory pages released", "count", released, "remaining", len(m.pages))
	}
	return released
}

// PageCount returns the number of currently allocated pages.
func (m *Memory) PageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

// StartMaintenance launches the periodic collector on the shared worker
// pool. Callers own the instance lifecycle and must Close it; an unclosed
// loop in a long-lived host process leaks a ticker per invocation.
func (m *Memory) StartMaintenance() {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	gopool.Submit(func() {
		ticker := time.NewTicker(m.cfg.GCInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CollectGarbage()
			case <-stop:
				return
			}
		}
	})
}
