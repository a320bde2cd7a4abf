// Package telemetry provides the in-memory event store backing the
// telemetry service: a bounded ring of recent events plus per-type
// counters for the metrics endpoint.
package telemetry

import (
	"sync"

	"apexdrive/internal/shared/types"
)

// Summary aggregates ingest counters for the metrics endpoint.
type Summary struct {
	Total  int64
	ByType map[string]int64
}

// Store is an in-memory telemetry sink for local and staging usage.
type Store struct {
	mu       sync.RWMutex
	capacity int
	recent   []types.TelemetryEvent
	total    int64
	byType   map[string]int64
}

// NewStore returns a store keeping at most capacity recent events.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 512
	}
	return &Store{
		capacity: capacity,
		recent:   make([]types.TelemetryEvent, 0, capacity),
		byType:   make(map[string]int64),
	}
}

// Ingest records an event, evicting the oldest once at capacity.
func (s *Store) Ingest(ev types.TelemetryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recent) >= s.capacity {
		s.recent = s.recent[1:]
	}
	s.recent = append(s.recent, ev)
	s.total++
	s.byType[ev.EventType]++
}

// Recent returns up to limit most recent events, newest last.
func (s *Store) Recent(limit int) []types.TelemetryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	out := make([]types.TelemetryEvent, limit)
	copy(out, s.recent[len(s.recent)-limit:])
	return out
}

// Summary returns total and per-type ingest counts.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	return Summary{Total: s.total, ByType: byType}
}
