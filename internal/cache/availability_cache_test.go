package cache

import (
	"testing"
	"time"
)

func newTestMemory(t *testing.T) (*Memory, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	m := NewMemory(DefaultTTL, DefaultSweepEvery)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestKey_ParameterOrderIrrelevant(t *testing.T) {
	a := NewKey([]string{"2026-09-02", "2026-09-01"}, "svc-1", 2, "")
	b := NewKey([]string{"2026-09-01", "2026-09-02"}, "svc-1", 2, "")
	if a.String() != b.String() {
		t.Fatalf("keys differ: %q vs %q", a.String(), b.String())
	}
}

func TestKey_WildcardService(t *testing.T) {
	k := NewKey([]string{"2026-09-01"}, "", 2, "")
	if k.String() != "dates=2026-09-01|duration=2|exclude=|service=all" {
		t.Fatalf("unexpected key %q", k.String())
	}
}

func TestGetSet_TTLExpiry(t *testing.T) {
	m, now := newTestMemory(t)
	k := NewKey([]string{"2026-09-01"}, "svc-1", 2, "")

	m.Set(k, "result")
	if v, ok := m.Get(k); !ok || v != "result" {
		t.Fatal("expected hit inside TTL")
	}

	*now = now.Add(5*time.Minute - time.Second)
	if _, ok := m.Get(k); !ok {
		t.Fatal("expected hit just before expiry")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := m.Get(k); ok {
		t.Fatal("expected miss after expiry")
	}
}

func TestSweep_RemovesExpiredWithoutReads(t *testing.T) {
	m, now := newTestMemory(t)
	m.Set(NewKey([]string{"2026-09-01"}, "", 2, ""), 1)
	m.Set(NewKey([]string{"2026-09-02"}, "", 2, ""), 2)

	*now = now.Add(10 * time.Minute)
	m.sweep()
	if m.Len() != 0 {
		t.Fatalf("expected empty cache after sweep, got %d entries", m.Len())
	}
}

func TestInvalidate_All(t *testing.T) {
	m, _ := newTestMemory(t)
	m.Set(NewKey([]string{"2026-09-01"}, "svc-1", 2, ""), 1)
	m.Set(NewKey([]string{"2026-09-02"}, "svc-2", 2, ""), 2)

	m.Invalidate("", "")
	if m.Len() != 0 {
		t.Fatalf("expected full clear, %d entries remain", m.Len())
	}
}

func TestInvalidate_ByDate(t *testing.T) {
	m, _ := newTestMemory(t)
	hit := NewKey([]string{"2026-09-01"}, "svc-1", 2, "")
	bulk := NewKey([]string{"2026-09-01", "2026-09-03"}, "svc-2", 2, "")
	other := NewKey([]string{"2026-09-02"}, "svc-1", 2, "")
	m.Set(hit, 1)
	m.Set(bulk, 2)
	m.Set(other, 3)

	m.Invalidate("2026-09-01", "")
	if _, ok := m.Get(hit); ok {
		t.Fatal("single-date entry for the date should be gone")
	}
	if _, ok := m.Get(bulk); ok {
		t.Fatal("bulk entry touching the date should be gone")
	}
	if _, ok := m.Get(other); !ok {
		t.Fatal("entry for a different date should remain")
	}
}

func TestInvalidate_ByDateAndService(t *testing.T) {
	m, _ := newTestMemory(t)
	sameService := NewKey([]string{"2026-09-01"}, "svc-1", 2, "")
	wildcard := NewKey([]string{"2026-09-01"}, "", 2, "")
	otherService := NewKey([]string{"2026-09-01"}, "svc-2", 2, "")
	m.Set(sameService, 1)
	m.Set(wildcard, 2)
	m.Set(otherService, 3)

	m.Invalidate("2026-09-01", "svc-1")
	if _, ok := m.Get(sameService); ok {
		t.Fatal("same-service entry should be gone")
	}
	if _, ok := m.Get(wildcard); ok {
		t.Fatal("all-services wildcard entry should be gone")
	}
	if _, ok := m.Get(otherService); !ok {
		t.Fatal("other-service entry should remain")
	}
}
