// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/gazed/kinetic/math/lin"

// events.go is the EventBus and the pair-tracking event engine that
// turns per-substep contact manifolds into touch and trigger events.

// CollisionEventType enumerates the PhysicsCollisionEvent kinds.
type CollisionEventType uint8

const (
	TouchBegin CollisionEventType = iota
	Touching
	TouchEnd
)

// TriggerEventType enumerates the PhysicsTriggerEvent kinds.
type TriggerEventType uint8

const (
	TriggerEnter TriggerEventType = iota
	TriggerLeave
)

// PhysicsTransformEvent carries a post-step world pose for a dynamic
// body whose motion state moved.
type PhysicsTransformEvent struct {
	UnitId UnitId
	World  lin.M4
}

// PhysicsCollisionEvent carries per-pair contact data.
type PhysicsCollisionEvent struct {
	Units    [2]UnitId
	Actors   [2]ActorInstance
	Position lin.V3
	Normal   lin.V3
	Distance float32
	Type     CollisionEventType
}

// PhysicsTriggerEvent carries enter/leave notifications for trigger
// actors.
type PhysicsTriggerEvent struct {
	TriggerUnit UnitId
	OtherUnit   UnitId
	Type        TriggerEventType
}

// EventBus buffers one frame's worth of typed events for the consumer
// to drain or rotate once per frame.
type EventBus struct {
	Transforms []PhysicsTransformEvent
	Collisions []PhysicsCollisionEvent
	Triggers   []PhysicsTriggerEvent
}

// Clear drops every buffered event, the rotate half of the consumer's
// drain-or-rotate contract.
func (b *EventBus) Clear() {
	b.Transforms = b.Transforms[:0]
	b.Collisions = b.Collisions[:0]
	b.Triggers = b.Triggers[:0]
}

// pairKey packs two unit ids into one unordered u64 key, the larger
// id in the high half.
func pairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(b)<<32 | uint64(a)
}

// pairManifold is the minimal per-pair data the event pass needs: the
// two participant actors (for trigger/NO_CONTACT_RESPONSE detection)
// and the first contact point (for TOUCH_BEGIN).
type pairManifold struct {
	unitA, unitB       UnitId
	actorA, actorB     ActorInstance
	triggerA, triggerB bool
	contact            collider_Contact
	hasContact         bool
}

// diffPairs clears and repopulates curr from this substep's manifolds,
// diffs it against prev, and emits touch and trigger events. The caller
// owns both sets and swaps them by pointer afterward; neither map is
// ever reallocated, so the swap is constant-time.
func diffPairs(prev, curr map[uint64]pairManifold, manifolds []pairManifold, bus *EventBus) {
	clear(curr)
	for _, m := range manifolds {
		if !m.hasContact {
			continue
		}
		key := pairKey(uint32(m.unitA), uint32(m.unitB))
		curr[key] = m
		_, wasPresent := prev[key]
		isTrigger := m.triggerA || m.triggerB
		if !wasPresent {
			if isTrigger {
				triggerUnit, otherUnit := m.unitA, m.unitB
				if m.triggerB {
					triggerUnit, otherUnit = m.unitB, m.unitA
				}
				bus.Triggers = append(bus.Triggers, PhysicsTriggerEvent{
					TriggerUnit: triggerUnit, OtherUnit: otherUnit, Type: TriggerEnter,
				})
			} else {
				bus.Collisions = append(bus.Collisions, PhysicsCollisionEvent{
					Units: [2]UnitId{m.unitA, m.unitB}, Actors: [2]ActorInstance{m.actorA, m.actorB},
					Position: m.contact.point, Normal: m.contact.normal,
					Distance: float32(-m.contact.penetration), Type: TouchBegin,
				})
			}
		} else if !isTrigger {
			bus.Collisions = append(bus.Collisions, PhysicsCollisionEvent{
				Units: [2]UnitId{m.unitA, m.unitB}, Actors: [2]ActorInstance{m.actorA, m.actorB},
				Position: m.contact.point, Normal: m.contact.normal,
				Distance: float32(-m.contact.penetration), Type: Touching,
			})
		}
	}
	for key, m := range prev {
		if _, stillPresent := curr[key]; stillPresent {
			continue
		}
		if m.triggerA || m.triggerB {
			triggerUnit, otherUnit := m.unitA, m.unitB
			if m.triggerB {
				triggerUnit, otherUnit = m.unitB, m.unitA
			}
			bus.Triggers = append(bus.Triggers, PhysicsTriggerEvent{
				TriggerUnit: triggerUnit, OtherUnit: otherUnit, Type: TriggerLeave,
			})
		} else {
			bus.Collisions = append(bus.Collisions, PhysicsCollisionEvent{
				Units: [2]UnitId{m.unitA, m.unitB}, Actors: [2]ActorInstance{m.actorA, m.actorB},
				Type: TouchEnd,
			})
		}
	}
}
