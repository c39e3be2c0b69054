package lru_test

import (
	"errors"
	"testing"

	"github.com/wudi/thumbkit/lru"
)

func TestNewRejectsInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := lru.New[int, string](capacity, nil); !errors.Is(err, lru.ErrInvalidCapacity) {
			t.Fatalf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
	}
}

func TestCapacityInvariant(t *testing.T) {
	const capacity = 3
	c, err := lru.New[int, int](capacity, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 50; i++ {
		c.Add(i, i*10)
		if c.Len() > capacity {
			t.Fatalf("after add %d: len %d exceeds capacity %d", i, c.Len(), capacity)
		}
	}
	if c.Len() != capacity {
		t.Fatalf("expected full cache, len %d", c.Len())
	}
}

func TestEvictionOrder(t *testing.T) {
	c, err := lru.New[string, int](2, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Add("A", 1)
	c.Add("B", 2)

	// Promote A so B becomes least-recently-used.
	if _, ok := c.Get("A"); !ok {
		t.Fatalf("A should be cached")
	}
	if evicted := c.Add("C", 3); !evicted {
		t.Fatalf("inserting C at capacity should evict")
	}

	if !c.Contains("A") || !c.Contains("C") {
		t.Fatalf("expected {A, C}, keys %v", c.Keys())
	}
	if c.Contains("B") {
		t.Fatalf("B should have been evicted")
	}
}

func TestGetIsIdempotent(t *testing.T) {
	c, err := lru.New[string, int](4, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Add("k", 42)
	for i := 0; i < 10; i++ {
		v, ok := c.Get("k")
		if !ok || v != 42 {
			t.Fatalf("get %d: (%v, %v)", i, v, ok)
		}
		if c.Len() != 1 {
			t.Fatalf("get changed cache size to %d", c.Len())
		}
	}
}

func TestMissHasNoSideEffects(t *testing.T) {
	c, err := lru.New[string, int](2, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Add("A", 1)
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("unexpected hit")
	}
	if c.Len() != 1 {
		t.Fatalf("miss changed cache size to %d", c.Len())
	}
}

func TestDisposerRuns(t *testing.T) {
	disposed := map[string]int{}
	c, err := lru.New[string, int](2, func(k string, v int) { disposed[k] = v })
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	c.Add("A", 1)
	c.Add("B", 2)
	c.Add("C", 3) // evicts A
	if disposed["A"] != 1 {
		t.Fatalf("eviction did not dispose A: %v", disposed)
	}

	c.Add("B", 20) // replace disposes old value
	if disposed["B"] != 2 {
		t.Fatalf("replacement did not dispose old B: %v", disposed)
	}

	c.Remove("C")
	if disposed["C"] != 3 {
		t.Fatalf("remove did not dispose C: %v", disposed)
	}

	c.Purge()
	if disposed["B"] != 20 {
		t.Fatalf("purge did not dispose B: %v", disposed)
	}
	if c.Len() != 0 {
		t.Fatalf("purge left %d entries", c.Len())
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	c, err := lru.New[string, int](2, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Remove("nope") {
		t.Fatalf("removing absent key reported true")
	}
}

func TestKeysOrder(t *testing.T) {
	c, err := lru.New[int, int](3, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Add(1, 1)
	c.Add(2, 2)
	c.Add(3, 3)
	c.Get(1)

	keys := c.Keys()
	want := []int{1, 3, 2}
	if len(keys) != len(want) {
		t.Fatalf("keys %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys %v, want %v", keys, want)
		}
	}
}
