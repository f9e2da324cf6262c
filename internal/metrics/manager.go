package metrics

import (
	"sync"
)

// Manager is the in-process registry of the stats Search and Ingest track,
// surfaced through the admin stats endpoint. Prometheus collectors
// themselves (Get(), and the package vars above) are independent of this
// and always active.
type Manager struct {
	Search *SearchMetrics
	Ingest *IngestMetrics
	mu     sync.RWMutex
}

var globalManager *Manager
var managerOnce sync.Once

// GetManager returns the global metrics manager (singleton).
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			Search: NewSearchMetrics(),
			Ingest: NewIngestMetrics(),
		}
	})
	return globalManager
}

// ResetAll resets all in-process metrics.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Search.Reset()
	m.Ingest.Reset()
}

// GetAllMetrics returns all metrics as a map.
func (m *Manager) GetAllMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"search": m.Search.GetStats(),
		"ingest": m.Ingest.GetStats(),
	}
}

// GetSearchStats returns only search metrics.
func (m *Manager) GetSearchStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Search.GetStats()
}
