package buffer

import "testing"

func TestRingSnapshotBeforeFull(t *testing.T) {
	ring := NewRing[int](4)
	ring.Push(1)
	ring.Push(2)

	if ring.Len() != 2 {
		t.Fatalf("expected length 2, got %d", ring.Len())
	}
	snapshot := ring.Snapshot()
	if len(snapshot) != 2 || snapshot[0] != 1 || snapshot[1] != 2 {
		t.Fatalf("expected [1 2], got %v", snapshot)
	}
}

func TestRingOverwritesOldest(t *testing.T) {
	ring := NewRing[int](3)
	for value := 1; value <= 5; value++ {
		ring.Push(value)
	}

	if ring.Len() != 3 {
		t.Fatalf("expected length 3, got %d", ring.Len())
	}
	snapshot := ring.Snapshot()
	if len(snapshot) != 3 || snapshot[0] != 3 || snapshot[1] != 4 || snapshot[2] != 5 {
		t.Fatalf("expected [3 4 5], got %v", snapshot)
	}
}

func TestRingEmptySnapshotIsNil(t *testing.T) {
	ring := NewRing[int](3)
	if snapshot := ring.Snapshot(); snapshot != nil {
		t.Fatalf("expected nil snapshot, got %v", snapshot)
	}
}

func TestRingZeroCapacityClamped(t *testing.T) {
	ring := NewRing[int](0)
	ring.Push(1)
	ring.Push(2)

	snapshot := ring.Snapshot()
	if len(snapshot) != 1 || snapshot[0] != 2 {
		t.Fatalf("expected [2], got %v", snapshot)
	}
}
