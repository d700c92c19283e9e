// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"
	"math"

	"github.com/gazed/kinetic/math/lin"
)

// mover.go is the kinematic capsule character controller: the stepUp /
// stepForwardAndStrafe / stepDown sweep phases plus penetration
// recovery, in the tradition of Bullet's btKinematicCharacterController.
// Sweeps are discrete-sample advances with a bisection refinement
// against the narrowphase (GJK/EPA) already used by actor-actor
// contacts, rather than a continuous TOI solver.

// MoverFlags report which sweep phase produced a hit during the most
// recent move.
type MoverFlags uint8

const (
	CollidesSides MoverFlags = 1 << iota
	CollidesUp
	CollidesDown
)

// DefaultStepHeight is used when a MoverDesc leaves StepHeight at zero.
// A tiny step height defeats the stair-climb loop, so the default is
// large enough for stepUp to clear a typical stair riser.
const DefaultStepHeight = 0.35

// MoverDesc is the per-unit mover descriptor.
type MoverDesc struct {
	Radius          float32
	Height          float32
	MaxSlopeAngle   float32 // radians
	CollisionFilter uint32  // StringId32
	Center          lin.V3
	StepHeight      float32 // 0 => DefaultStepHeight
}

// Mover is the per-instance controller state.
type Mover struct {
	unit UnitId

	radius     float64
	halfHeight float64
	up         lin.V3
	center     lin.V3

	maxSlopeRadians float64
	maxSlopeCosine  float64
	stepHeight      float64
	maxPenetration  float64

	position      lin.V3 // capsule center in world space
	verticalDelta float64
	wasOnGround   bool
	flags         MoverFlags

	filter Filter
}

type moverStore struct {
	units  []UnitId
	movers []*Mover
	lookup unitIndexMap
}

func newMoverStore() *moverStore { return &moverStore{lookup: unitIndexMap{}} }

func (s *moverStore) moverInstance(unit UnitId) MoverInstance {
	if idx, ok := s.lookup.lookup(unit); ok {
		return MoverInstance{idx}
	}
	return invalidMover()
}

// create builds a mover for unit at worldPos. A unit may hold at most
// one mover.
func (s *moverStore) create(unit UnitId, desc MoverDesc, worldPos lin.V3, filter Filter) MoverInstance {
	if _, exists := s.lookup.lookup(unit); exists {
		slog.Error("mover_create: unit already has a mover", "unit", unit)
		panic("physics: duplicate mover on unit")
	}
	stepHeight := float64(desc.StepHeight)
	if stepHeight == 0 {
		stepHeight = DefaultStepHeight
	}
	m := &Mover{
		unit:            unit,
		radius:          float64(desc.Radius),
		halfHeight:      float64(desc.Height) / 2,
		up:              lin.V3{Y: 1},
		center:          desc.Center,
		maxSlopeRadians: float64(desc.MaxSlopeAngle),
		maxSlopeCosine:  math.Cos(float64(desc.MaxSlopeAngle)),
		stepHeight:      stepHeight,
		maxPenetration:  0.2,
		position:        *lin.NewV3().Add(&worldPos, &desc.Center),
		filter:          filter,
	}
	idx := uint32(len(s.movers))
	s.movers = append(s.movers, m)
	s.units = append(s.units, unit)
	s.lookup[unit] = idx
	return MoverInstance{idx}
}

func (s *moverStore) destroy(unit UnitId) {
	idx, ok := s.lookup.lookup(unit)
	if !ok {
		return
	}
	last := uint32(len(s.movers)) - 1
	movedUnit := s.units[last]
	s.movers[idx] = s.movers[last]
	s.units[idx] = movedUnit
	s.movers = s.movers[:last]
	s.units = s.units[:last]
	delete(s.lookup, unit)
	if movedUnit != unit {
		s.lookup[movedUnit] = idx
	}
}

func (s *moverStore) get(inst MoverInstance) *Mover {
	if !inst.IsValid() || inst.i >= uint32(len(s.movers)) {
		slog.Error("mover store: invalid instance")
		panic("physics: invalid mover instance")
	}
	return s.movers[inst.i]
}

// sweepCandidate is one obstacle the mover's sweeps and recovery pass
// test against: an actor's (or another mover's) collider plus the data
// needed for the slope and contact-response filters.
type sweepCandidate struct {
	shape             *collider
	filter            Filter
	noContactResponse bool
}

// capsuleAt builds a transient capsule collider centered at pos,
// the shape used for every sweep sample and the recovery pass.
func (m *Mover) capsuleAt(pos lin.V3) collider {
	c := collider_capsule_create(float32(m.radius), float32(m.halfHeight))
	up := lin.NewV3().Scale(&m.up, m.halfHeight)
	c.capsule.center = pos
	c.capsule.capA = *lin.NewV3().Add(&pos, up)
	c.capsule.capB = *lin.NewV3().Sub(&pos, up)
	return c
}

// overlapAt returns every contact between the mover's capsule at pos and
// the candidate obstacles, applying the contact-response, broadphase
// filter and slope filters. Contact normals point from the
// capsule toward the obstacle (collider_get_contacts convention), so
// the surface normal facing the mover is the negation: a flat floor
// below yields a contact normal of -up. slopeFilter keeps only
// floor-like contacts, surfaces whose mover-facing normal satisfies
// up.(-normal) >= maxSlopeCosine.
func (m *Mover) overlapAt(pos lin.V3, candidates []sweepCandidate, slopeFilter bool) []collider_Contact {
	capsule := m.capsuleAt(pos)
	var contacts []collider_Contact
	for _, cand := range candidates {
		if cand.noContactResponse {
			continue
		}
		if !filterShouldCollide(m.filter, cand.filter) {
			continue
		}
		cs := collider_get_contacts(&capsule, cand.shape)
		for _, c := range cs {
			if slopeFilter && -m.up.Dot(&c.normal) < m.maxSlopeCosine {
				continue
			}
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// sweep advances the capsule from `from` toward `to` in discrete
// samples, bisecting between the last overlap-free sample and the first
// overlapping one to refine the hit fraction (see file doc: the
// conservative-advancement substitute for a continuous TOI sweep).
func (m *Mover) sweep(from, to lin.V3, candidates []sweepCandidate, slopeFilter bool) (hit bool, fraction float64, normal lin.V3, point lin.V3) {
	const samples = 20
	delta := *lin.NewV3().Sub(&to, &from)
	if delta.Len() < lin.Epsilon {
		return false, 1, normal, to
	}
	prevT := 0.0
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		pos := lin.NewV3().Scale(&delta, t)
		pos.Add(pos, &from)
		contacts := m.overlapAt(*pos, candidates, slopeFilter)
		if len(contacts) > 0 {
			lo, hi := prevT, t
			best := contacts[0]
			for iter := 0; iter < 12; iter++ {
				mid := (lo + hi) / 2
				p := lin.NewV3().Scale(&delta, mid)
				p.Add(p, &from)
				cs := m.overlapAt(*p, candidates, slopeFilter)
				if len(cs) > 0 {
					hi = mid
					best = cs[0]
				} else {
					lo = mid
				}
			}
			pt := lin.NewV3().Scale(&delta, lo)
			pt.Add(pt, &from)
			return true, lo, best.normal, *pt
		}
		prevT = t
	}
	return false, 1, normal, to
}

// recoverFromPenetration recomputes overlaps directly from current
// obstacle state (no cached broadphase AABB, so there is no stale
// paircache to refresh). For every contact deeper than maxPenetration,
// nudge the mover's position by 0.2*depth against the contact normal
// (away from the obstacle) and report whether any displacement was
// applied.
func (m *Mover) recoverFromPenetration(candidates []sweepCandidate) bool {
	moved := false
	contacts := m.overlapAt(m.position, candidates, false)
	for _, c := range contacts {
		if c.penetration > m.maxPenetration {
			correction := lin.NewV3().Scale(&c.normal, -0.2*c.penetration)
			m.position.Add(&m.position, correction)
			moved = true
		}
	}
	return moved
}

// move executes the three sweep phases in order and returns the flags
// set this call. The delta's vertical component (along m.up)
// drives step_up's climb distance and step_down's drop test; the
// horizontal component drives step_forward_and_strafe.
func (m *Mover) move(delta lin.V3, candidates []sweepCandidate) MoverFlags {
	m.flags = 0
	m.verticalDelta = delta.Dot(&m.up)
	m.stepUp(candidates)
	m.stepForwardAndStrafe(delta, candidates)
	m.stepDown(candidates)
	for i := 0; i < 4; i++ {
		if !m.recoverFromPenetration(candidates) {
			break
		}
	}
	return m.flags
}

// stepUp sweeps up by the step height (plus any upward delta) before
// the horizontal move.
func (m *Mover) stepUp(candidates []sweepCandidate) {
	climb := m.stepHeight
	if m.verticalDelta > 0 {
		climb += m.verticalDelta
	}
	target := lin.NewV3().Scale(&m.up, climb)
	target.Add(target, &m.position)
	hit, _, normal, point := m.sweep(m.position, *target, candidates, false)
	if hit && m.up.Dot(&normal) > 0 {
		m.flags |= CollidesUp
		m.position = point
		for i := 0; i < 4; i++ {
			if !m.recoverFromPenetration(candidates) {
				break
			}
		}
		if m.verticalDelta > 0 {
			m.verticalDelta = 0
		}
	} else if !hit {
		m.position = *target
	}
}

// stepForwardAndStrafe moves along the horizontal component of the
// delta, sliding along whatever it hits.
func (m *Mover) stepForwardAndStrafe(delta lin.V3, candidates []sweepCandidate) {
	residual := lin.V3{X: delta.X, Y: 0, Z: delta.Z}
	original := residual
	if residual.Len() < lin.Epsilon {
		return
	}
	originalDir := *lin.NewV3().Set(&original).Unit()
	for iter := 0; iter < 10; iter++ {
		if residual.Dot(&residual) <= lin.Epsilon {
			break
		}
		target := lin.NewV3().Add(&m.position, &residual)
		hit, fraction, normal, point := m.sweep(m.position, *target, candidates, false)
		if !hit {
			m.position = *target
			break
		}
		m.flags |= CollidesSides
		m.position = point
		remaining := 1 - fraction
		remain := lin.NewV3().Scale(&residual, remaining)
		perp := perpendicularComponent(*remain, normal)
		residual = perp
		dir := *lin.NewV3().Set(&residual).Unit()
		if dir.Dot(&originalDir) <= 0 {
			break
		}
	}
}

// stepDown drops the mover back toward the ground after the climb and
// the horizontal move.
func (m *Mover) stepDown(candidates []sweepCandidate) {
	if m.verticalDelta > 0 {
		return
	}
	drop := m.stepHeight + math.Abs(m.verticalDelta)
	target := lin.NewV3().Scale(&m.up, -drop)
	target.Add(target, &m.position)
	targetDouble := lin.NewV3().Scale(&m.up, -2*drop)
	targetDouble.Add(targetDouble, &m.position)

	// slopeFilter=true: a surface steeper than maxSlopeRadians is not
	// floor-like and must never be snapped to as ground.
	hit, _, _, point := m.sweep(m.position, *target, candidates, true)
	hit2, _, _, point2 := m.sweep(m.position, *targetDouble, candidates, true)

	if !hit && !hit2 {
		m.position = *target
		m.wasOnGround = false
		return
	}
	m.flags |= CollidesDown
	switch {
	case hit:
		m.position = point
		m.wasOnGround = true
	case m.wasOnGround:
		// Grounded last move and the floor is within the probe's reach:
		// snap down to it rather than interpolating a long fall.
		m.position = point2
		m.wasOnGround = true
	default:
		// Airborne with ground only inside the probe range: keep the
		// smooth fall; the next move's single drop will land.
		m.position = *target
		m.wasOnGround = false
	}
}

// setHeightRadius swaps a new capsule shape onto the mover and runs
// penetration recovery up to four times, since the new shape may now
// overlap neighbours the old one did not.
func (m *Mover) setHeightRadius(radius, height float64, candidates []sweepCandidate) {
	m.radius = radius
	m.halfHeight = height / 2
	for i := 0; i < 4; i++ {
		if !m.recoverFromPenetration(candidates) {
			break
		}
	}
}

// SetRadius implements mover_set_radius: construct a new
// capsule at the current height, then recover.
func (m *Mover) SetRadius(radius float64, candidates []sweepCandidate) {
	m.setHeightRadius(radius, m.halfHeight*2, candidates)
}

// SetHeight implements mover_set_height: construct a new
// capsule at the current radius, then recover.
func (m *Mover) SetHeight(height float64, candidates []sweepCandidate) {
	m.setHeightRadius(m.radius, height, candidates)
}

// Radius and Height expose the capsule's current dimensions.
func (m *Mover) Radius() float64 { return m.radius }
func (m *Mover) Height() float64 { return m.halfHeight * 2 }

// SetCenter adjusts the ghost origin by the delta between the new and
// old center, leaving the capsule shape untouched.
func (m *Mover) SetCenter(center lin.V3) {
	delta := *lin.NewV3().Sub(&center, &m.center)
	m.position.Add(&m.position, &delta)
	m.center = center
}

// Center returns the mover's current center offset.
func (m *Mover) Center() lin.V3 { return m.center }

// SetCollisionFilter re-registers the ghost's broadphase group/mask
//. The ghost itself has no persistent broadphase proxy object
// in this module (see file doc: overlaps are recomputed directly), so
// this reduces to swapping the filter used by overlapAt/sweep.
func (m *Mover) SetCollisionFilter(filter Filter) { m.filter = filter }

// SetMaxSlopeAngle updates the floor/wall classification threshold
// used by the step-down slope filter.
func (m *Mover) SetMaxSlopeAngle(radians float64) {
	m.maxSlopeRadians = radians
	m.maxSlopeCosine = math.Cos(radians)
}

func (m *Mover) MaxSlopeAngle() float64 { return m.maxSlopeRadians }

// SetPosition resets mover state and teleports the capsule.
func (m *Mover) SetPosition(pos lin.V3) {
	m.verticalDelta = 0
	m.wasOnGround = false
	m.flags = 0
	m.position = *lin.NewV3().Add(&pos, &m.center)
}

// Position returns the mover's capsule-center world position.
func (m *Mover) Position() lin.V3 { return m.position }

// CollidesSides, CollidesUp and CollidesDown report which sweep phase
// of the most recent Move produced a hit.
func (m *Mover) CollidesSides() bool { return m.flags&CollidesSides != 0 }
func (m *Mover) CollidesUp() bool    { return m.flags&CollidesUp != 0 }
func (m *Mover) CollidesDown() bool  { return m.flags&CollidesDown != 0 }

// perpendicularComponent removes the component of v along normal,
// leaving the slide direction along a hit surface.
func perpendicularComponent(v lin.V3, normal lin.V3) lin.V3 {
	d := v.Dot(&normal)
	par := *lin.NewV3().Scale(&normal, d)
	return *lin.NewV3().Sub(&v, &par)
}
