// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// broad.go is the broadphase: a naive O(n^2) bounding-sphere sweep
// plus a union-find simulation-island builder. It operates over a
// uniform view whose entries may be actor bodies or mover ghosts; mover
// entries are never part of a dynamics island.

// broadObject is the uniform broadphase view. World.actorContactManifolds
// builds it once per substep from the actor store only; movers test
// their obstacles directly (mover.go) and never appear in it.
type broadObject struct {
	position lin.V3
	radius   float64
	filter   Filter
	isActor  bool   // false => mover ghost
	index    uint32 // ActorInstance.i or MoverInstance.i depending on isActor
}

// broad_Collision_Pair indexes two entries of the broadObject slice the
// pair was computed from.
type broad_Collision_Pair struct {
	a, b uint32
}

// broad_get_collision_pairs runs a bounding-sphere distance test,
// widened by a small margin to account for motion between substeps,
// and applies the broadphase group/mask filter rule.
func broad_get_collision_pairs(objs []broadObject) []broad_Collision_Pair {
	pairs := []broad_Collision_Pair{}
	for i := 0; i < len(objs); i++ {
		o1 := &objs[i]
		for j := i + 1; j < len(objs); j++ {
			o2 := &objs[j]
			if !filterShouldCollide(o1.filter, o2.filter) {
				continue
			}
			dist := lin.NewV3().Sub(&o1.position, &o2.position).Len()
			maxDist := o1.radius + o2.radius + 0.1
			if dist <= maxDist {
				pairs = append(pairs, broad_Collision_Pair{uint32(i), uint32(j)})
			}
		}
	}
	return pairs
}

// uf_find
func uf_find(parent map[uint32]uint32, x uint32) uint32 {
	p, ok := parent[x]
	if !ok {
		slog.Error("broad: missing parent entry", "index", x)
		return x
	}
	if p == x {
		return x
	}
	root := uf_find(parent, p)
	parent[x] = root
	return root
}

// uf_union
func uf_union(parent map[uint32]uint32, x, y uint32) {
	parent[uf_find(parent, y)] = uf_find(parent, x)
}

// broad_collect_simulation_islands groups actor entries that are
// either in contact or jointly constrained. Mover entries never join an
// island. broadObject does not record whether an actor is static or
// kinematic, so such actors are grouped like dynamic ones.
func broad_collect_simulation_islands(objs []broadObject, pairs []broad_Collision_Pair, joints []jointEdge) [][]uint32 {
	parent := map[uint32]uint32{}
	for i, o := range objs {
		if o.isActor {
			parent[uint32(i)] = uint32(i)
		}
	}
	dynamic := func(i uint32) bool { return objs[i].isActor }
	for _, p := range pairs {
		if dynamic(p.a) && dynamic(p.b) {
			uf_union(parent, p.a, p.b)
		}
	}
	for _, e := range joints {
		if dynamic(e.a) && dynamic(e.b) {
			uf_union(parent, e.a, e.b)
		}
	}
	islandOf := map[uint32]int{}
	islands := [][]uint32{}
	for i := range objs {
		if !dynamic(uint32(i)) {
			continue
		}
		root := uf_find(parent, uint32(i))
		idx, ok := islandOf[root]
		if !ok {
			idx = len(islands)
			islands = append(islands, nil)
			islandOf[root] = idx
		}
		islands[idx] = append(islands[idx], uint32(i))
	}
	return islands
}

// jointEdge is the minimal view broad.go needs of a joint: the two
// broadObject indices it connects.
type jointEdge struct{ a, b uint32 }
