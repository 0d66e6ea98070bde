package memory

import "time"

// SetClock replaces the store's time source. Tests use it to expire locks
// without sleeping.
func (m *Store) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
