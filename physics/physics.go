// Copyright © 2024 Galvanized Logic Inc.

// Package physics is a kinematic-first physics core: a character
// controller (Mover) integrated with a dense-array actor/collider/joint
// world, penetration recovery, broadphase pair tracking, and a
// touch/trigger event stream. The narrowphase and constraint math
// follow the GJK/EPA/XPBD algorithms popularized by
// https://github.com/felipeek/raw-physics.
//
//	narrowphase.go                     : GJK/EPA convex intersection
//	support.go                         : support-point functions
//	constraint.go                      : XPBD positional/angular constraints
//	broad.go                           : broadphase pairing + islands
//	collider.go, shape.go              : shape storage + descriptor decode
//	collider_store.go                  : ColliderInstance dense array
//	body.go                            : rigid body dynamics state
//	actor_store.go                     : ActorInstance dense array
//	mover.go                           : kinematic character controller
//	joint.go                           : fixed/spring/hinge constraints
//	caster.go                          : ray and shape casts
//	events.go                          : EventBus + pair-diff event engine
//	world.go                           : PhysicsWorld, step engine
//	config.go, hash.go                 : PhysicsConfigResource, StringId32/64
package physics
