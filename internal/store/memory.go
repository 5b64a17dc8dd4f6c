package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// MemorySink keeps records in memory. It backs dry runs and tests.
type MemorySink struct {
	mu      sync.RWMutex
	records map[string]oniongen.MatchRecord
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make(map[string]oniongen.MatchRecord)}
}

// Write implements Sink.
func (m *MemorySink) Write(ctx context.Context, rec oniongen.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.Address]; exists {
		return ErrExists
	}
	m.records[rec.Address] = rec
	return nil
}

// Get returns the record stored for address.
func (m *MemorySink) Get(address string) (oniongen.MatchRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[address]
	return rec, ok
}

// Addresses returns the stored addresses in sorted order.
func (m *MemorySink) Addresses() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.records))
	for addr := range m.records {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stored records.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
