// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// actor_store.go is the actor store: rigid bodies (static,
// dynamic or kinematic, optionally triggers) built from a collider plus
// a PhysicsConfigResource lookup.

// ActorDesc is the per-unit actor descriptor.
type ActorDesc struct {
	ActorClass      uint32 // StringId32
	Material        uint32 // StringId32
	CollisionFilter uint32 // StringId32
	Mass            float32
	LockFlags       uint32
}

type actorStore struct {
	units  []UnitId
	bodies []*Body
	lookup unitIndexMap
}

func newActorStore() *actorStore {
	return &actorStore{lookup: unitIndexMap{}}
}

func (s *actorStore) actorInstance(unit UnitId) ActorInstance {
	if idx, ok := s.lookup.lookup(unit); ok {
		return ActorInstance{idx}
	}
	return invalidActor()
}

// create builds a rigid body from desc, resolving actor-class, material
// and filter records from cfg. pos/rot is the unit's current world
// pose stripped of scale.
func (s *actorStore) create(unit UnitId, desc ActorDesc, col *collider, cfg *PhysicsConfigResource, pos lin.V3, rot lin.Q) ActorInstance {
	if _, exists := s.lookup.lookup(unit); exists {
		slog.Error("actor_create: unit already has an actor", "unit", unit)
		panic("physics: duplicate actor on unit")
	}
	class, ok := cfg.Classes[desc.ActorClass]
	if !ok {
		slog.Error("actor_create: unknown actor class", "class", desc.ActorClass)
		panic("physics: unknown actor class")
	}
	mat := cfg.Mats[desc.Material]
	filter := cfg.Filters[desc.CollisionFilter]

	static := class.Flags&(ActorClassDynamic|ActorClassKinematic) == 0
	kinematic := class.Flags&ActorClassKinematic != 0
	mass := float64(desc.Mass)
	if static || kinematic {
		mass = 0
	}
	body := newBody(pos, rot, mass, []collider{*col}, mat, class, desc.LockFlags, static, kinematic)
	body.filter = filter
	body.gravity = lin.V3{Y: -10}

	idx := uint32(len(s.bodies))
	body.userObjectPointer = idx
	s.bodies = append(s.bodies, body)
	s.units = append(s.units, unit)
	s.lookup[unit] = idx
	return ActorInstance{idx}
}

// destroy removes the actor owned by unit with the usual swap-and-pop,
// rewriting the moved body's back-pointer.
func (s *actorStore) destroy(unit UnitId) {
	idx, ok := s.lookup.lookup(unit)
	if !ok {
		return
	}
	last := uint32(len(s.bodies)) - 1
	movedUnit := s.units[last]
	s.bodies[idx] = s.bodies[last]
	s.bodies[idx].userObjectPointer = idx
	s.units[idx] = movedUnit
	s.bodies = s.bodies[:last]
	s.units = s.units[:last]
	delete(s.lookup, unit)
	if movedUnit != unit {
		s.lookup[movedUnit] = idx
	}
}

func (s *actorStore) get(inst ActorInstance) *Body {
	if !inst.IsValid() || inst.i >= uint32(len(s.bodies)) {
		slog.Error("actor store: invalid instance")
		panic("physics: invalid actor instance")
	}
	return s.bodies[inst.i]
}

func (s *actorStore) unitOf(inst ActorInstance) UnitId { return s.units[inst.i] }

// actor_wake_up is a no-op placeholder for a body deactivation timer:
// this module does not model sleeping bodies, but every write path
// still follows the activate-before-write rule so later introducing
// deactivation is a one-line change.
func actor_wake_up(b *Body) {}

// actor_set_linear_velocity applies the lock-flag factor and wakes the
// body first.
func actor_set_linear_velocity(b *Body, v lin.V3) {
	actor_wake_up(b)
	b.linear_velocity = lin.V3{X: v.X * b.linearFactor.X, Y: v.Y * b.linearFactor.Y, Z: v.Z * b.linearFactor.Z}
}

func actor_set_angular_velocity(b *Body, v lin.V3) {
	actor_wake_up(b)
	b.angular_velocity = lin.V3{X: v.X * b.angularFactor.X, Y: v.Y * b.angularFactor.Y, Z: v.Z * b.angularFactor.Z}
}

func actor_add_impulse(b *Body, impulse lin.V3) {
	actor_wake_up(b)
	delta := lin.NewV3().Scale(&impulse, b.inverse_mass)
	b.linear_velocity.Add(&b.linear_velocity, delta)
}

func actor_add_impulse_at(b *Body, impulse, worldPos lin.V3) {
	actor_wake_up(b)
	delta := lin.NewV3().Scale(&impulse, b.inverse_mass)
	b.linear_velocity.Add(&b.linear_velocity, delta)
	r := lin.NewV3().Sub(&worldPos, &b.world_position)
	torque := lin.NewV3().Cross(r, &impulse)
	angDelta := lin.NewV3().MultMv(&b.inverse_inertia_tensor, torque)
	b.angular_velocity.Add(&b.angular_velocity, angDelta)
}

// actor_add_torque_impulse does NOT activate the body first, unlike
// every other impulse function above. The asymmetry is long-standing.
// Since actor_wake_up does nothing in this module, the missing wake has
// no observable effect and no test can detect it.
func actor_add_torque_impulse(b *Body, torqueImpulse lin.V3) {
	angDelta := lin.NewV3().MultMv(&b.inverse_inertia_tensor, &torqueImpulse)
	b.angular_velocity.Add(&b.angular_velocity, angDelta)
}

// actor_enable_gravity clears the disable flag and resets the body's
// per-body gravity to the world's current gravity.
func actor_enable_gravity(b *Body, worldGravity lin.V3) {
	b.gravityDisabled = false
	b.gravity = worldGravity
}

func actor_disable_gravity(b *Body) {
	b.gravityDisabled = true
	b.gravity = lin.V3{}
}

// actor_teleport_world_position overwrites the center-of-mass transform
// directly, bypassing motion interpolation.
func actor_teleport_world_position(b *Body, pos lin.V3) { b.world_position = pos }
func actor_teleport_world_rotation(b *Body, rot lin.Q)  { b.world_rotation = rot }
func actor_teleport_world_pose(b *Body, pos lin.V3, rot lin.Q) {
	b.world_position = pos
	b.world_rotation = rot
}

// actor_set_kinematic toggles the kinematic flag and fixed-ness.
// Kinematic bodies are pinned to "never deactivate"; this module has no
// deactivation model, so the flag only gates dynamics integration.
func actor_set_kinematic(b *Body, kinematic bool) {
	b.kinematic = kinematic
	b.fixed = kinematic || b.mass == 0
}
