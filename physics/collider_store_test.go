// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/gazed/kinetic/math/lin"
)

func unitScale() [3]float64 { return [3]float64{1, 1, 1} }

func TestColliderStoreCreateAndLookup(t *testing.T) {
	s := newColliderStore()
	desc := ColliderDesc{Type: ShapeSphere, Radius: 1}
	inst := s.create(UnitId(1), desc, unitScale())
	if !inst.IsValid() {
		t.Fatal("expected valid instance")
	}
	if got := s.colliderInstance(UnitId(1)); got != inst {
		t.Fatalf("expected lookup to return %v, got %v", inst, got)
	}
	if s.colliderInstance(UnitId(2)).IsValid() {
		t.Fatal("expected unknown unit to be invalid")
	}
}

func TestColliderStoreDuplicatePanics(t *testing.T) {
	s := newColliderStore()
	desc := ColliderDesc{Type: ShapeSphere, Radius: 1}
	s.create(UnitId(1), desc, unitScale())
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate collider create")
		}
	}()
	s.create(UnitId(1), desc, unitScale())
}

func TestColliderStoreDestroySwapsTail(t *testing.T) {
	s := newColliderStore()
	desc := ColliderDesc{Type: ShapeSphere, Radius: 1}
	s.create(UnitId(1), desc, unitScale())
	s.create(UnitId(2), desc, unitScale())
	s.create(UnitId(3), desc, unitScale())

	s.destroy(UnitId(1))

	if s.colliderInstance(UnitId(1)).IsValid() {
		t.Fatal("unit 1 should no longer have a collider")
	}
	if len(s.data) != 2 {
		t.Fatalf("expected 2 remaining colliders, got %d", len(s.data))
	}
	// unit 3 (the former tail) should have been moved into slot 0.
	inst3 := s.colliderInstance(UnitId(3))
	if inst3.i != 0 {
		t.Fatalf("expected unit 3 moved to index 0, got %d", inst3.i)
	}
	inst2 := s.colliderInstance(UnitId(2))
	if inst2.i != 1 {
		t.Fatalf("expected unit 2 to remain at index 1, got %d", inst2.i)
	}
}

func TestColliderStoreDestroyMissingIsNoop(t *testing.T) {
	s := newColliderStore()
	s.destroy(UnitId(99)) // must not panic
}

func TestColliderUpdateSphere(t *testing.T) {
	c := collider_sphere_create(1)
	rot := lin.Q{W: 1}
	collider_update(&c, lin.V3{X: 1, Y: 2, Z: 3}, &rot)
	if c.sphere.center.X != 1 || c.sphere.center.Y != 2 || c.sphere.center.Z != 3 {
		t.Fatalf("expected sphere center to track translation, got %+v", c.sphere.center)
	}
}

func TestColliderGetContactsSpheresOverlap(t *testing.T) {
	rot := lin.Q{W: 1}
	c1 := collider_sphere_create(1)
	collider_update(&c1, lin.V3{}, &rot)
	c2 := collider_sphere_create(1)
	collider_update(&c2, lin.V3{X: 1.5}, &rot)

	contacts := collider_get_contacts(&c1, &c2)
	if len(contacts) != 1 {
		t.Fatalf("expected one contact, got %d", len(contacts))
	}
	if contacts[0].penetration <= 0 {
		t.Fatalf("expected positive penetration, got %f", contacts[0].penetration)
	}
}

func TestColliderGetContactsSpheresApart(t *testing.T) {
	rot := lin.Q{W: 1}
	c1 := collider_sphere_create(1)
	collider_update(&c1, lin.V3{}, &rot)
	c2 := collider_sphere_create(1)
	collider_update(&c2, lin.V3{X: 5}, &rot)

	if contacts := collider_get_contacts(&c1, &c2); len(contacts) != 0 {
		t.Fatalf("expected no contact, got %d", len(contacts))
	}
}
