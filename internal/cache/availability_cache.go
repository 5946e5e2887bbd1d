// Package cache provides the process-local availability cache. Entries are
// best-effort staleness reduction only; nothing here claims cross-process
// consistency.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Key identifies one availability query after normalization. Dates are
// sorted on construction so parameter order never affects cache hits.
type Key struct {
	dates            []string
	serviceID        string
	duration         int
	excludeBookingID string
}

func NewKey(dates []string, serviceID string, duration int, excludeBookingID string) Key {
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)
	return Key{
		dates:            sorted,
		serviceID:        serviceID,
		duration:         duration,
		excludeBookingID: excludeBookingID,
	}
}

// String is the deterministic serialization used as the map key.
func (k Key) String() string {
	service := k.serviceID
	if service == "" {
		service = "all"
	}
	return fmt.Sprintf("dates=%s|duration=%d|exclude=%s|service=%s",
		strings.Join(k.dates, ","), k.duration, k.excludeBookingID, service)
}

// Store is the injectable cache contract the availability service consumes.
type Store interface {
	Get(k Key) (any, bool)
	Set(k Key, v any)
	// Invalidate drops entries touching date (all entries when date is "").
	// With serviceID set, only entries scoped to that service or to the
	// "all services" wildcard are dropped.
	Invalidate(date, serviceID string)
}

type entry struct {
	value     any
	expiresAt time.Time
	dates     []string
	serviceID string
}

// Memory is the in-process Store with TTL expiry and a periodic sweep that
// bounds memory even when nothing reads the cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	stopOnce sync.Once
	done     chan struct{}
}

const (
	DefaultTTL        = 5 * time.Minute
	DefaultSweepEvery = time.Minute
)

func NewMemory(ttl, sweepEvery time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepEvery
	}
	return &Memory{
		entries:    make(map[string]entry),
		ttl:        ttl,
		sweepEvery: sweepEvery,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

func (m *Memory) Get(k Key) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[k.String()]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, k.String())
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(k Key, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[k.String()] = entry{
		value:     v,
		expiresAt: m.now().Add(m.ttl),
		dates:     k.dates,
		serviceID: k.serviceID,
	}
}

func (m *Memory) Invalidate(date, serviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if date == "" {
		m.entries = make(map[string]entry)
		return
	}
	for key, e := range m.entries {
		if !containsDate(e.dates, date) {
			continue
		}
		if serviceID != "" && e.serviceID != "" && e.serviceID != serviceID {
			continue
		}
		delete(m.entries, key)
	}
}

// Start launches the background sweep. A single timer drives it, so sweeps
// never run concurrently with each other.
func (m *Memory) Start() {
	go func() {
		ticker := time.NewTicker(m.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.done:
				return
			}
		}
	}()
}

func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// Len reports the live entry count, expired or not. Used by tests and the
// invalidation endpoint's response.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func containsDate(dates []string, date string) bool {
	i := sort.SearchStrings(dates, date)
	return i < len(dates) && dates[i] == date
}
