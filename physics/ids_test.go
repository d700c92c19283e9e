// Copyright © 2024 Galvanized Logic Inc.

package physics

import "testing"

func TestInstanceIsValid(t *testing.T) {
	if invalidCollider().IsValid() {
		t.Fatal("invalidCollider should report not valid")
	}
	if invalidActor().IsValid() {
		t.Fatal("invalidActor should report not valid")
	}
	if invalidMover().IsValid() {
		t.Fatal("invalidMover should report not valid")
	}
	if invalidJoint().IsValid() {
		t.Fatal("invalidJoint should report not valid")
	}
	if !(ActorInstance{0}).IsValid() {
		t.Fatal("instance 0 should be valid")
	}
}

func TestUnitIndexMapLookup(t *testing.T) {
	m := unitIndexMap{}
	if _, ok := m.lookup(UnitId(1)); ok {
		t.Fatal("expected miss on empty map")
	}
	m[UnitId(1)] = 7
	idx, ok := m.lookup(UnitId(1))
	if !ok || idx != 7 {
		t.Fatalf("expected (7, true), got (%d, %v)", idx, ok)
	}
}

func TestSwapRemove(t *testing.T) {
	items := []int{10, 20, 30, 40}
	moved, tailWasAt, out := swapRemove(items, 1)
	if moved != 40 {
		t.Fatalf("expected moved element 40, got %d", moved)
	}
	if tailWasAt != 3 {
		t.Fatalf("expected tail index 3, got %d", tailWasAt)
	}
	if len(out) != 3 || out[1] != 40 {
		t.Fatalf("expected [10 40 30], got %v", out)
	}
}
