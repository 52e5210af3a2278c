// Package ttlstore provides a mutex-guarded keyed store for short-lived
// records (one-time login codes, car presence markers) with periodic
// full-scan eviction.
package ttlstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"carlink/internal/observability/metrics"
)

type entry[T any] struct {
	value   T
	created time.Time
}

type Store[T any] struct {
	mu      sync.Mutex
	records map[string]entry[T]
	now     func() time.Time
}

func New[T any]() *Store[T] {
	return &Store[T]{
		records: make(map[string]entry[T]),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewWithClock is for tests that need a fake clock.
func NewWithClock[T any](now func() time.Time) *Store[T] {
	s := New[T]()
	s.now = now
	return s
}

// Put stores value under key, unconditionally replacing any prior record and
// resetting its creation time. Supersession, not merge.
func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = entry[T]{value: value, created: s.now()}
}

// Get returns the record for key and when it was created.
func (s *Store[T]) Get(key string) (value T, created time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[key]
	if !ok {
		var zero T
		return zero, time.Time{}, false
	}
	return e.value, e.created, true
}

func (s *Store[T]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep deletes every record older than maxAge relative to now and reports
// how many were evicted. Readers never observe a partially-applied sweep.
func (s *Store[T]) Sweep(now time.Time, maxAge time.Duration) int {
	cutoff := now.Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for key, e := range s.records {
		if !e.created.After(cutoff) {
			delete(s.records, key)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on a fixed interval until ctx is cancelled. It is meant to run
// as a singleton background goroutine for the lifetime of the process.
func (s *Store[T]) Run(ctx context.Context, interval, maxAge time.Duration, name string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Sweep(s.now(), maxAge); evicted > 0 {
				metrics.SweepEvictionsTotal.WithLabelValues(name).Add(float64(evicted))
				slog.Debug("swept expired records", "store", name, "evicted", evicted)
			}
		}
	}
}
