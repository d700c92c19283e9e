// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/gazed/kinetic/math/lin"
)

func allFilter() Filter { return Filter{Me: 0xFFFFFFFF, Mask: 0xFFFFFFFF} }

func TestBroadGetCollisionPairsWithinRange(t *testing.T) {
	objs := []broadObject{
		{position: lin.V3{X: 0}, radius: 1, filter: allFilter(), isActor: true, index: 0},
		{position: lin.V3{X: 1}, radius: 1, filter: allFilter(), isActor: true, index: 1},
		{position: lin.V3{X: 100}, radius: 1, filter: allFilter(), isActor: true, index: 2},
	}
	pairs := broad_get_collision_pairs(objs)
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one pair within range, got %d", len(pairs))
	}
	if pairs[0].a != 0 || pairs[0].b != 1 {
		t.Fatalf("expected pair (0,1), got %+v", pairs[0])
	}
}

func TestBroadGetCollisionPairsRespectsFilter(t *testing.T) {
	noMatch := Filter{Me: 1, Mask: 1}
	other := Filter{Me: 2, Mask: 2}
	objs := []broadObject{
		{position: lin.V3{X: 0}, radius: 1, filter: noMatch, isActor: true, index: 0},
		{position: lin.V3{X: 0.5}, radius: 1, filter: other, isActor: true, index: 1},
	}
	if pairs := broad_get_collision_pairs(objs); len(pairs) != 0 {
		t.Fatalf("expected filter to exclude the pair, got %d", len(pairs))
	}
}

func TestBroadCollectSimulationIslandsGroupsConnectedActors(t *testing.T) {
	objs := []broadObject{
		{isActor: true}, {isActor: true}, {isActor: true}, {isActor: false},
	}
	pairs := []broad_Collision_Pair{{a: 0, b: 1}}
	islands := broad_collect_simulation_islands(objs, pairs, nil)
	if len(islands) != 2 {
		t.Fatalf("expected 2 islands (0,1 joined; 2 alone), got %d: %+v", len(islands), islands)
	}
}
