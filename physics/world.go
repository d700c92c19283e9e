// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"
	"math"

	"github.com/gazed/kinetic/math/lin"
)

// world.go is the PhysicsWorld and its step engine: the single owner
// of the collider/actor/mover/joint stores, a fixed-substep update
// loop that drives the compact XPBD-style integrator, the broadphase
// pair-diff event pass, and the cast/raycast entry points.

// PhysicsSettings configures the step engine: how many fixed substeps
// Update(dt) may run in one call, the substep frequency, and the hard
// linear-velocity clamp applied every substep.
type PhysicsSettings struct {
	MaxSubsteps   int
	StepFrequency float32
	VelocityClamp float32
}

// DefaultVelocityClamp is used when PhysicsSettings leaves
// VelocityClamp at zero.
const DefaultVelocityClamp float32 = 100

// UnitPoseSource supplies a unit's current world pose and scale at
// collider/actor/mover creation time. The scene graph that owns unit
// transforms lives outside this package; callers adapt their own graph
// to this interface.
type UnitPoseSource interface {
	UnitWorldPosition(unit UnitId) lin.V3
	UnitWorldRotation(unit UnitId) lin.Q
	UnitWorldScale(unit UnitId) lin.V3
}

// UnitManager publishes a destroy callback. PhysicsWorld subscribes so
// that destroying a unit cascades across every component store it
// owns.
type UnitManager interface {
	OnDestroy(func(UnitId))
}

// World owns every collider, actor, mover and joint, runs the
// fixed-substep solver, and buffers the resulting events on an
// EventBus for the caller to drain once per frame.
type World struct {
	colliders *colliderStore
	actors    *actorStore
	movers    *moverStore
	joints    *jointStore

	config  *PhysicsConfigResource
	gravity lin.V3

	settings PhysicsSettings

	Events EventBus

	// double-buffered pair sets: curr is cleared and refilled each
	// substep, then the two swap by pointer. Neither is ever
	// reallocated.
	pairsPrev map[uint64]pairManifold
	pairsCurr map[uint64]pairManifold

	accumulator float64
}

// NewWorld builds an empty PhysicsWorld bound to cfg, the shared,
// read-only actor-class/material/filter table.
func NewWorld(cfg *PhysicsConfigResource, settings PhysicsSettings) *World {
	if settings.MaxSubsteps == 0 {
		settings.MaxSubsteps = 10
	}
	if settings.StepFrequency == 0 {
		settings.StepFrequency = 60
	}
	if settings.VelocityClamp == 0 {
		settings.VelocityClamp = DefaultVelocityClamp
	}
	return &World{
		colliders: newColliderStore(),
		actors:    newActorStore(),
		movers:    newMoverStore(),
		joints:    newJointStore(),
		config:    cfg,
		gravity:   lin.V3{Y: -10},
		settings:  settings,
		pairsPrev: map[uint64]pairManifold{},
		pairsCurr: map[uint64]pairManifold{},
	}
}

// Bind subscribes to a UnitManager's destroy callback so that destroying
// a unit tears down its collider, actor and mover in one pass.
func (w *World) Bind(units UnitManager) {
	units.OnDestroy(func(u UnitId) {
		w.colliders.destroy(u)
		w.actors.destroy(u)
		w.movers.destroy(u)
	})
}

// --- collider/actor/mover/joint lifecycle ---

// CreateColliders implements collider_create_instances: one collider per
// (unit, desc) pair, scaled by the unit's current world scale.
func (w *World) CreateColliders(units []UnitId, descs []ColliderDesc, src UnitPoseSource) []ColliderInstance {
	out := make([]ColliderInstance, len(units))
	for i, u := range units {
		scale := src.UnitWorldScale(u)
		out[i] = w.colliders.create(u, descs[i], [3]float64{scale.X, scale.Y, scale.Z})
	}
	return out
}

func (w *World) DestroyCollider(unit UnitId)                  { w.colliders.destroy(unit) }
func (w *World) ColliderInstance(unit UnitId) ColliderInstance { return w.colliders.colliderInstance(unit) }

// CreateActors implements actor_create_instances: each unit must already
// carry a collider; motion state starts from the unit's current world pose
// with scale stripped.
func (w *World) CreateActors(units []UnitId, descs []ActorDesc, src UnitPoseSource) []ActorInstance {
	out := make([]ActorInstance, len(units))
	for i, u := range units {
		ci := w.colliders.colliderInstance(u)
		if !ci.IsValid() {
			slog.Error("actor_create: unit has no collider", "unit", u)
			panic("physics: actor requires an existing collider")
		}
		col := w.colliders.get(ci)
		pos := src.UnitWorldPosition(u)
		rot := src.UnitWorldRotation(u)
		out[i] = w.actors.create(u, descs[i], col, w.config, pos, rot)
	}
	return out
}

func (w *World) DestroyActor(unit UnitId)               { w.actors.destroy(unit) }
func (w *World) ActorInstance(unit UnitId) ActorInstance { return w.actors.actorInstance(unit) }
func (w *World) ActorUnit(a ActorInstance) UnitId        { return w.actors.unitOf(a) }

// CreateMover implements mover_create.
func (w *World) CreateMover(unit UnitId, desc MoverDesc, src UnitPoseSource) MoverInstance {
	filter := w.config.Filters[desc.CollisionFilter]
	pos := src.UnitWorldPosition(unit)
	return w.movers.create(unit, desc, pos, filter)
}

func (w *World) DestroyMover(unit UnitId)               { w.movers.destroy(unit) }
func (w *World) MoverInstance(unit UnitId) MoverInstance { return w.movers.moverInstance(unit) }

// JointCreate implements joint_create: both actors must already
// be live. The store itself does not check liveness (joint.go: "only
// World holds both stores").
func (w *World) JointCreate(a, b ActorInstance, desc JointDesc) JointInstance {
	if !a.IsValid() || a.i >= uint32(len(w.actors.bodies)) || !b.IsValid() || b.i >= uint32(len(w.actors.bodies)) {
		slog.Error("joint_create: invalid actor instance")
		panic("physics: joint requires two valid actors")
	}
	return w.joints.create(a, b, desc)
}

// JointDestroy implements joint_destroy.
func (w *World) JointDestroy(inst JointInstance) { w.joints.destroy(inst) }

// --- actor mutators ---

func (w *World) ActorSetLinearVelocity(a ActorInstance, v lin.V3)  { actor_set_linear_velocity(w.actors.get(a), v) }
func (w *World) ActorSetAngularVelocity(a ActorInstance, v lin.V3) { actor_set_angular_velocity(w.actors.get(a), v) }
func (w *World) ActorLinearVelocity(a ActorInstance) lin.V3        { return w.actors.get(a).linear_velocity }
func (w *World) ActorAngularVelocity(a ActorInstance) lin.V3       { return w.actors.get(a).angular_velocity }
func (w *World) ActorWorldPosition(a ActorInstance) lin.V3         { return w.actors.get(a).world_position }
func (w *World) ActorWorldRotation(a ActorInstance) lin.Q          { return w.actors.get(a).world_rotation }

func (w *World) ActorAddImpulse(a ActorInstance, impulse lin.V3) {
	actor_add_impulse(w.actors.get(a), impulse)
}
func (w *World) ActorAddImpulseAt(a ActorInstance, impulse, worldPos lin.V3) {
	actor_add_impulse_at(w.actors.get(a), impulse, worldPos)
}
func (w *World) ActorAddTorqueImpulse(a ActorInstance, torqueImpulse lin.V3) {
	actor_add_torque_impulse(w.actors.get(a), torqueImpulse)
}
func (w *World) ActorAddForce(a ActorInstance, position, newtons lin.V3) {
	w.actors.get(a).AddForce(position, newtons, false)
}

func (w *World) ActorTeleportPosition(a ActorInstance, pos lin.V3) {
	actor_teleport_world_position(w.actors.get(a), pos)
}
func (w *World) ActorTeleportRotation(a ActorInstance, rot lin.Q) {
	actor_teleport_world_rotation(w.actors.get(a), rot)
}
func (w *World) ActorTeleportPose(a ActorInstance, pos lin.V3, rot lin.Q) {
	actor_teleport_world_pose(w.actors.get(a), pos, rot)
}

func (w *World) ActorSetKinematic(a ActorInstance, kinematic bool) {
	actor_set_kinematic(w.actors.get(a), kinematic)
}
func (w *World) ActorIsFixed(a ActorInstance) bool { return w.actors.get(a).fixed }

func (w *World) ActorEnableGravity(a ActorInstance) {
	actor_enable_gravity(w.actors.get(a), w.gravity)
}
func (w *World) ActorDisableGravity(a ActorInstance) { actor_disable_gravity(w.actors.get(a)) }

// SetGravity implements set_gravity: the new value propagates to
// every live actor that has not individually disabled gravity.
func (w *World) SetGravity(g lin.V3) {
	w.gravity = g
	for _, b := range w.actors.bodies {
		if !b.gravityDisabled {
			b.gravity = g
		}
	}
}

func (w *World) Gravity() lin.V3 { return w.gravity }

// --- mover mutators and the per-unit move entry point ---

// sweepCandidatesExcluding builds the obstacle list a mover's sweeps and
// recovery pass test against: every actor body (as a fresh world-space
// collider) plus every other mover's ghost capsule. A mover never sweeps
// against its own ghost.
func (w *World) sweepCandidatesExcluding(selfIdx uint32) []sweepCandidate {
	cands := make([]sweepCandidate, 0, len(w.actors.bodies)+len(w.movers.movers))
	for _, b := range w.actors.bodies {
		col := b.colliders[0]
		collider_update(&col, b.world_position, &b.world_rotation)
		cands = append(cands, sweepCandidate{shape: &col, filter: b.filter, noContactResponse: b.trigger})
	}
	for i, m := range w.movers.movers {
		if uint32(i) == selfIdx {
			continue
		}
		g := m.capsuleAt(m.position)
		cands = append(cands, sweepCandidate{shape: &g, filter: m.filter})
	}
	return cands
}

// MoverMove implements mover_move: runs the three-phase move
// plus penetration recovery and returns the resulting collision flags.
func (w *World) MoverMove(inst MoverInstance, delta lin.V3) MoverFlags {
	m := w.movers.get(inst)
	return m.move(delta, w.sweepCandidatesExcluding(inst.i))
}

func (w *World) MoverSetRadius(inst MoverInstance, radius float64) {
	m := w.movers.get(inst)
	m.SetRadius(radius, w.sweepCandidatesExcluding(inst.i))
}
func (w *World) MoverSetHeight(inst MoverInstance, height float64) {
	m := w.movers.get(inst)
	m.SetHeight(height, w.sweepCandidatesExcluding(inst.i))
}
func (w *World) MoverSetCenter(inst MoverInstance, center lin.V3) { w.movers.get(inst).SetCenter(center) }
func (w *World) MoverCenter(inst MoverInstance) lin.V3            { return w.movers.get(inst).Center() }
func (w *World) MoverSetCollisionFilter(inst MoverInstance, filterId uint32) {
	w.movers.get(inst).SetCollisionFilter(w.config.Filters[filterId])
}
func (w *World) MoverSetMaxSlopeAngle(inst MoverInstance, radians float64) {
	w.movers.get(inst).SetMaxSlopeAngle(radians)
}
func (w *World) MoverMaxSlopeAngle(inst MoverInstance) float64 { return w.movers.get(inst).MaxSlopeAngle() }
func (w *World) MoverSetPosition(inst MoverInstance, pos lin.V3) { w.movers.get(inst).SetPosition(pos) }
func (w *World) MoverPosition(inst MoverInstance) lin.V3         { return w.movers.get(inst).Position() }
func (w *World) MoverRadius(inst MoverInstance) float64          { return w.movers.get(inst).Radius() }
func (w *World) MoverHeight(inst MoverInstance) float64          { return w.movers.get(inst).Height() }
func (w *World) MoverCollidesSides(inst MoverInstance) bool      { return w.movers.get(inst).CollidesSides() }
func (w *World) MoverCollidesUp(inst MoverInstance) bool         { return w.movers.get(inst).CollidesUp() }
func (w *World) MoverCollidesDown(inst MoverInstance) bool       { return w.movers.get(inst).CollidesDown() }

// --- raycasting and shape casting ---

// CastRay implements cast_ray: the nearest hit along the ray against
// every live actor. Mover ghosts are never candidates, since the actor
// store is the only source of candidates here.
func (w *World) CastRay(from, dir lin.V3, maxLen float64) (RayHit, bool) {
	d := *lin.NewV3().Set(&dir).Unit()
	bestT := math.MaxFloat64
	var best RayHit
	found := false
	for i, b := range w.actors.bodies {
		col := b.colliders[0]
		collider_update(&col, b.world_position, &b.world_rotation)
		if hit, t, n := castAgainstCollider(from, d, maxLen, &col); hit {
			dist := t * maxLen
			if dist < bestT {
				bestT = dist
				point := lin.NewV3().Scale(&d, dist)
				point.Add(point, &from)
				best = RayHit{Position: *point, Normal: n, Time: t, Unit: w.actors.units[i], Actor: ActorInstance{uint32(i)}}
				found = true
			}
		}
	}
	return best, found
}

// CastRayAll implements cast_ray_all: every hit along the ray, in
// store-iteration order (unsorted).
func (w *World) CastRayAll(from, dir lin.V3, maxLen float64) []RayHit {
	d := *lin.NewV3().Set(&dir).Unit()
	var hits []RayHit
	for i, b := range w.actors.bodies {
		col := b.colliders[0]
		collider_update(&col, b.world_position, &b.world_rotation)
		if hit, t, n := castAgainstCollider(from, d, maxLen, &col); hit {
			point := lin.NewV3().Scale(&d, t*maxLen)
			point.Add(point, &from)
			hits = append(hits, RayHit{Position: *point, Normal: n, Time: t, Unit: w.actors.units[i], Actor: ActorInstance{uint32(i)}})
		}
	}
	return hits
}

// CastSphere implements cast_sphere: a convex sweep of a transient
// sphere collider along dir, using the same discrete-sample-plus-
// bisection substitute for a continuous TOI sweep that mover.go's
// sweep() uses.
func (w *World) CastSphere(from, dir lin.V3, length, radius float64) (RayHit, bool) {
	shape := collider_sphere_create(float32(radius))
	return w.castShape(&shape, from, dir, length)
}

// CastBox implements cast_box the same way, sweeping a box built as an
// 8-vertex convex hull (collider_box_create).
func (w *World) CastBox(from, dir lin.V3, length float64, halfExtents lin.V3) (RayHit, bool) {
	shape := collider_box_create(float32(halfExtents.X), float32(halfExtents.Y), float32(halfExtents.Z))
	return w.castShape(&shape, from, dir, length)
}

func (w *World) castShape(shape *collider, from, dir lin.V3, length float64) (RayHit, bool) {
	const samples = 24
	d := *lin.NewV3().Set(&dir).Unit()
	prevT := 0.0
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		pos := lin.NewV3().Scale(&d, t*length)
		pos.Add(pos, &from)
		if unit, actor, normal, ok := w.overlapShapeAt(shape, *pos); ok {
			lo, hi := prevT, t
			bestNormal, bestUnit, bestActor := normal, unit, actor
			for iter := 0; iter < 12; iter++ {
				mid := (lo + hi) / 2
				p := lin.NewV3().Scale(&d, mid*length)
				p.Add(p, &from)
				if u2, a2, n2, ok2 := w.overlapShapeAt(shape, *p); ok2 {
					hi, bestNormal, bestUnit, bestActor = mid, n2, u2, a2
				} else {
					lo = mid
				}
			}
			point := lin.NewV3().Scale(&d, lo*length)
			point.Add(point, &from)
			return RayHit{Position: *point, Normal: bestNormal, Time: lo, Unit: bestUnit, Actor: bestActor}, true
		}
		prevT = t
	}
	return RayHit{}, false
}

// overlapShapeAt repositions the transient cast shape at pos and returns
// the first actor it overlaps, if any.
func (w *World) overlapShapeAt(shape *collider, pos lin.V3) (unit UnitId, actor ActorInstance, normal lin.V3, ok bool) {
	switch shape.ctype {
	case collider_TYPE_SPHERE:
		shape.sphere.center = pos
	case collider_TYPE_CONVEX_HULL:
		for i, v := range shape.convex_hull.vertices {
			shape.convex_hull.transformed_vertices[i] = *lin.NewV3().Add(&v, &pos)
		}
	}
	for i, b := range w.actors.bodies {
		col := b.colliders[0]
		collider_update(&col, b.world_position, &b.world_rotation)
		if cs := collider_get_contacts(shape, &col); len(cs) > 0 {
			return w.actors.units[i], ActorInstance{uint32(i)}, cs[0].normal, true
		}
	}
	return 0, ActorInstance{}, lin.V3{}, false
}

// --- update_actor_world_poses ---

// UpdateActorWorldPoses applies caller-supplied unit/world-matrix
// pairs to the actor and mover owned by each unit. Scaling is
// stripped; only rotation and translation survive. A unit with neither
// component is silently skipped.
func (w *World) UpdateActorWorldPoses(units []UnitId, worldPoses []lin.M4) {
	for i, u := range units {
		pos, rot := decomposePoseNoScale(&worldPoses[i])
		if inst := w.actors.actorInstance(u); inst.IsValid() {
			actor_teleport_world_pose(w.actors.get(inst), pos, rot)
		}
		if inst := w.movers.moverInstance(u); inst.IsValid() {
			w.movers.get(inst).SetPosition(pos)
		}
	}
}

func decomposePoseNoScale(m *lin.M4) (lin.V3, lin.Q) {
	t := lin.NewT().TFromM4(m)
	return *t.Loc, *t.Rot
}

// --- StepEngine ---

// Update runs the solver for as many fixed substeps as fit in dt
// (bounded by MaxSubsteps), then emits one PhysicsTransformEvent per
// dynamic actor.
func (w *World) Update(dt float32) {
	h := 1.0 / float64(w.settings.StepFrequency)
	w.accumulator += float64(dt)
	substeps := 0
	for w.accumulator >= h && substeps < w.settings.MaxSubsteps {
		w.substep(h)
		w.accumulator -= h
		substeps++
	}
	w.emitTransforms()
}

// substep integrates every dynamic body, clamps its linear velocity,
// solves joints, then diffs broadphase pairs into touch/trigger
// events.
func (w *World) substep(h float64) {
	w.integrate(h)
	w.clampVelocities()
	solveJoints(w.joints.joints, w.actors.get, h)
	w.diffPairsForSubstep()
}

// integrate applies gravity, accumulated forces and damping to every
// non-fixed body with semi-implicit Euler.
func (w *World) integrate(h float64) {
	for _, b := range w.actors.bodies {
		if b.fixed {
			continue
		}
		accel := lin.NewV3().Scale(&b.gravity, 1)
		if b.inverse_mass > 0 {
			ext := b.externalForce()
			accel.Add(accel, lin.NewV3().Scale(&ext, b.inverse_mass))
		}
		vel := lin.NewV3().Add(&b.linear_velocity, lin.NewV3().Scale(accel, h))
		vel.X *= b.linearFactor.X
		vel.Y *= b.linearFactor.Y
		vel.Z *= b.linearFactor.Z
		vel.Scale(vel, 1.0/(1.0+h*b.linearDamping))
		b.linear_velocity = *vel

		disp := lin.NewV3().Scale(&b.linear_velocity, h)
		b.world_position.Add(&b.world_position, disp)

		torque := b.externalTorque()
		dynInvInertia := b.worldInvInertia()
		angAccel := lin.NewV3().MultMv(&dynInvInertia, &torque)
		angVel := lin.NewV3().Add(&b.angular_velocity, lin.NewV3().Scale(angAccel, h))
		angVel.X *= b.angularFactor.X
		angVel.Y *= b.angularFactor.Y
		angVel.Z *= b.angularFactor.Z
		angVel.Scale(angVel, 1.0/(1.0+h*b.angularDamping))
		b.angular_velocity = *angVel

		wq := lin.Q{X: b.angular_velocity.X * h, Y: b.angular_velocity.Y * h, Z: b.angular_velocity.Z * h, W: 0}
		dq := lin.NewQ().Mult(&wq, &b.world_rotation)
		dq.Scale(0.5)
		newRot := lin.NewQ().Add(&b.world_rotation, dq)
		b.world_rotation = *newRot.Unit()

		b.clear_forces()
	}
}

// clampVelocities enforces the hard linear-velocity cap on every
// dynamic body, preserving direction.
func (w *World) clampVelocities() {
	clamp := float64(w.settings.VelocityClamp)
	for _, b := range w.actors.bodies {
		if b.fixed {
			continue
		}
		if l := b.linear_velocity.Len(); l > clamp {
			b.linear_velocity.Scale(&b.linear_velocity, clamp/l)
		}
	}
}

// diffPairsForSubstep rebuilds this substep's actor-actor contact
// manifolds, runs them through the pair-diff event engine of events.go,
// then swaps the two pair sets by pointer for the next substep.
func (w *World) diffPairsForSubstep() {
	manifolds := w.actorContactManifolds()
	diffPairs(w.pairsPrev, w.pairsCurr, manifolds, &w.Events)
	w.pairsPrev, w.pairsCurr = w.pairsCurr, w.pairsPrev
}

// actorContactManifolds runs narrowphase on every broadphase-surviving
// actor pair.
func (w *World) actorContactManifolds() []pairManifold {
	objs := make([]broadObject, len(w.actors.bodies))
	cols := make([]collider, len(w.actors.bodies))
	for i, b := range w.actors.bodies {
		cols[i] = b.colliders[0]
		collider_update(&cols[i], b.world_position, &b.world_rotation)
		objs[i] = broadObject{position: b.world_position, radius: b.bounding_sphere_radius, filter: b.filter, isActor: true, index: uint32(i)}
	}
	pairs := broad_get_collision_pairs(objs)
	manifolds := make([]pairManifold, 0, len(pairs))
	for _, p := range pairs {
		ba, bb := w.actors.bodies[p.a], w.actors.bodies[p.b]
		contacts := collider_get_contacts(&cols[p.a], &cols[p.b])
		if len(contacts) == 0 {
			continue
		}
		manifolds = append(manifolds, pairManifold{
			unitA: w.actors.units[p.a], unitB: w.actors.units[p.b],
			actorA: ActorInstance{p.a}, actorB: ActorInstance{p.b},
			triggerA: ba.trigger, triggerB: bb.trigger,
			contact: contacts[0], hasContact: true,
		})
	}
	return manifolds
}

// emitTransforms pushes every dynamic actor's current world pose
// (scale stripped) onto the EventBus after the substep loop.
func (w *World) emitTransforms() {
	for i, b := range w.actors.bodies {
		if b.fixed {
			continue
		}
		m := util_get_model_matrix_no_scale(&b.world_rotation, b.world_position)
		w.Events.Transforms = append(w.Events.Transforms, PhysicsTransformEvent{UnitId: w.actors.units[i], World: m})
	}
}
