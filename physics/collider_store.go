// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// collider_store.go is the collider store: a dense array of colliders
// keyed by UnitId through a hash map, with swap-and-pop removal.

type colliderStore struct {
	units  []UnitId
	data   []collider
	lookup unitIndexMap
}

func newColliderStore() *colliderStore {
	return &colliderStore{lookup: unitIndexMap{}}
}

// colliderInstance returns the instance for unit, or the sentinel.
func (s *colliderStore) colliderInstance(unit UnitId) ColliderInstance {
	if idx, ok := s.lookup.lookup(unit); ok {
		return ColliderInstance{idx}
	}
	return invalidCollider()
}

// create appends one collider for unit. A unit may hold at most one
// collider; creating a second is a programmer contract violation.
func (s *colliderStore) create(unit UnitId, desc ColliderDesc, scale [3]float64) ColliderInstance {
	if _, exists := s.lookup.lookup(unit); exists {
		slog.Error("collider_create: unit already has a collider", "unit", unit)
		panic("physics: duplicate collider on unit")
	}
	c := buildCollider(desc, lin.V3{X: scale[0], Y: scale[1], Z: scale[2]})
	idx := uint32(len(s.data))
	s.data = append(s.data, c)
	s.units = append(s.units, unit)
	s.lookup[unit] = idx
	return ColliderInstance{idx}
}

// destroy removes the collider owned by unit, swapping the tail element
// into the vacated slot.
func (s *colliderStore) destroy(unit UnitId) {
	idx, ok := s.lookup.lookup(unit)
	if !ok {
		return
	}
	last := uint32(len(s.data)) - 1
	movedUnit := s.units[last]
	s.data[idx] = s.data[last]
	s.units[idx] = movedUnit
	s.data = s.data[:last]
	s.units = s.units[:last]
	delete(s.lookup, unit)
	if movedUnit != unit {
		s.lookup[movedUnit] = idx
	}
}

func (s *colliderStore) get(inst ColliderInstance) *collider {
	if !inst.IsValid() {
		slog.Error("collider store: invalid instance")
		panic("physics: invalid collider instance")
	}
	return &s.data[inst.i]
}
