// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/gazed/kinetic/math/lin"
)

func testActorCollider() *collider {
	c := collider_sphere_create(1)
	return &c
}

func TestActorStoreCreateDynamic(t *testing.T) {
	cfg := NewDefaultConfig()
	s := newActorStore()
	desc := ActorDesc{ActorClass: StringId32("default"), Material: StringId32("default"), CollisionFilter: StringId32("all"), Mass: 2}
	inst := s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{Y: 5}, lin.Q{W: 1})
	if !inst.IsValid() {
		t.Fatal("expected valid actor instance")
	}
	b := s.get(inst)
	if b.fixed {
		t.Fatal("dynamic actor should not be fixed")
	}
	if b.inverse_mass != 0.5 {
		t.Fatalf("expected inverse mass 0.5, got %f", b.inverse_mass)
	}
	if b.world_position.Y != 5 {
		t.Fatalf("expected world position to match supplied pose, got %+v", b.world_position)
	}
}

func TestActorStoreCreateStaticHasZeroMass(t *testing.T) {
	cfg := NewDefaultConfig()
	s := newActorStore()
	desc := ActorDesc{ActorClass: StringId32("static"), Material: StringId32("default"), CollisionFilter: StringId32("all"), Mass: 10}
	inst := s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
	b := s.get(inst)
	if !b.fixed {
		t.Fatal("static actor should be fixed")
	}
	if b.inverse_mass != 0 {
		t.Fatalf("expected zero inverse mass for static actor, got %f", b.inverse_mass)
	}
}

func TestActorStoreCreateDuplicatePanics(t *testing.T) {
	cfg := NewDefaultConfig()
	s := newActorStore()
	desc := ActorDesc{ActorClass: StringId32("default"), Material: StringId32("default"), CollisionFilter: StringId32("all")}
	s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate actor create")
		}
	}()
	s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
}

func TestActorStoreCreateUnknownClassPanics(t *testing.T) {
	cfg := NewDefaultConfig()
	s := newActorStore()
	desc := ActorDesc{ActorClass: StringId32("nonexistent"), Material: StringId32("default"), CollisionFilter: StringId32("all")}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unknown actor class")
		}
	}()
	s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
}

func TestActorStoreDestroySwapsTailAndFixesBackpointer(t *testing.T) {
	cfg := NewDefaultConfig()
	s := newActorStore()
	desc := ActorDesc{ActorClass: StringId32("default"), Material: StringId32("default"), CollisionFilter: StringId32("all"), Mass: 1}
	s.create(UnitId(1), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
	s.create(UnitId(2), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})
	s.create(UnitId(3), desc, testActorCollider(), cfg, lin.V3{}, lin.Q{W: 1})

	s.destroy(UnitId(1))

	inst3 := s.actorInstance(UnitId(3))
	if inst3.i != 0 {
		t.Fatalf("expected unit 3 moved to index 0, got %d", inst3.i)
	}
	if s.bodies[0].userObjectPointer != 0 {
		t.Fatalf("expected moved body's back-pointer updated to 0, got %d", s.bodies[0].userObjectPointer)
	}
}

func TestActorAddImpulseScalesByInverseMass(t *testing.T) {
	b := newBody(lin.V3{}, lin.Q{W: 1}, 2, []collider{collider_sphere_create(1)}, Material{}, ActorClass{Flags: ActorClassDynamic}, 0, false, false)
	actor_add_impulse(b, lin.V3{X: 4})
	if b.linear_velocity.X != 2 {
		t.Fatalf("expected velocity 4 * (1/2) = 2, got %f", b.linear_velocity.X)
	}
}

func TestActorAddTorqueImpulseAppliesAngularDelta(t *testing.T) {
	// actor_add_torque_impulse does NOT call actor_wake_up, unlike every
	// sibling impulse function. actor_wake_up is a no-op, so the missing
	// wake cannot be observed here; this test checks that the function
	// still applies its angular delta even though it skips the wake step.
	b := newBody(lin.V3{}, lin.Q{W: 1}, 1, []collider{collider_sphere_create(1)}, Material{}, ActorClass{Flags: ActorClassDynamic}, 0, false, false)
	before := b.angular_velocity
	actor_add_torque_impulse(b, lin.V3{X: 1})
	if b.angular_velocity == before {
		t.Fatal("expected torque impulse to change angular velocity")
	}
}

func TestActorSetKinematicPinsFixed(t *testing.T) {
	b := newBody(lin.V3{}, lin.Q{W: 1}, 1, []collider{collider_sphere_create(1)}, Material{}, ActorClass{Flags: ActorClassDynamic}, 0, false, false)
	actor_set_kinematic(b, true)
	if !b.fixed || !b.kinematic {
		t.Fatal("expected kinematic body to be fixed")
	}
	actor_set_kinematic(b, false)
	if b.fixed {
		t.Fatal("expected non-kinematic, non-zero-mass body to be unfixed")
	}
}

func TestActorGravityEnableDisable(t *testing.T) {
	b := newBody(lin.V3{}, lin.Q{W: 1}, 1, []collider{collider_sphere_create(1)}, Material{}, ActorClass{Flags: ActorClassDynamic}, 0, false, false)
	actor_disable_gravity(b)
	if !b.gravityDisabled || b.gravity != (lin.V3{}) {
		t.Fatal("expected gravity cleared and disabled")
	}
	actor_enable_gravity(b, lin.V3{Y: -9.8})
	if b.gravityDisabled || b.gravity.Y != -9.8 {
		t.Fatal("expected gravity restored to world gravity")
	}
}

func TestLockFactorMasksAxes(t *testing.T) {
	// bit0 = lock TX, bit2 = lock TZ.
	f := lockFactor(1|4, 0)
	if f.X != 0 || f.Y != 1 || f.Z != 0 {
		t.Fatalf("expected (0,1,0), got %+v", f)
	}
}
