// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"math"
	"testing"

	"github.com/gazed/kinetic/math/lin"
)

func boxAt(pos lin.V3, hx, hy, hz float32) collider {
	box := collider_box_create(hx, hy, hz)
	rot := lin.Q{W: 1}
	collider_update(&box, pos, &rot)
	return box
}

func TestGjkIntersectsOverlappingBoxes(t *testing.T) {
	b1 := boxAt(lin.V3{}, 1, 1, 1)
	b2 := boxAt(lin.V3{X: 1.5}, 1, 1, 1)
	if !gjkIntersects(&b1, &b2, nil) {
		t.Fatal("expected overlapping unit boxes to intersect")
	}
}

func TestGjkIntersectsSeparatedBoxes(t *testing.T) {
	b1 := boxAt(lin.V3{}, 1, 1, 1)
	b2 := boxAt(lin.V3{X: 5}, 1, 1, 1)
	if gjkIntersects(&b1, &b2, nil) {
		t.Fatal("expected separated boxes to not intersect")
	}
}

func TestGjkIntersectsLeavesFullSimplex(t *testing.T) {
	b1 := boxAt(lin.V3{}, 1, 1, 1)
	b2 := boxAt(lin.V3{X: 1.5}, 1, 1, 1)
	var s simplex
	if !gjkIntersects(&b1, &b2, &s) {
		t.Fatal("expected intersection")
	}
	if s.n != 4 {
		t.Fatalf("expected a full tetrahedron simplex on intersection, got %d points", s.n)
	}
}

func TestEpaPenetrationDepthAndNormal(t *testing.T) {
	// Unit boxes whose centers are 1.5 apart on x overlap by 0.5; the
	// minimum-translation normal points from the first toward the
	// second along +x.
	b1 := boxAt(lin.V3{}, 1, 1, 1)
	b2 := boxAt(lin.V3{X: 1.5}, 1, 1, 1)
	var s simplex
	if !gjkIntersects(&b1, &b2, &s) {
		t.Fatal("expected intersection")
	}
	normal, depth, ok := epaPenetration(&b1, &b2, &s)
	if !ok {
		t.Fatal("expected EPA to converge for a simple box overlap")
	}
	if math.Abs(depth-0.5) > 0.01 {
		t.Fatalf("expected penetration depth near 0.5, got %f", depth)
	}
	if normal.X < 0.99 {
		t.Fatalf("expected +x minimum-translation normal, got %+v", normal)
	}
}

func TestSimplexPushShiftsNewestFirst(t *testing.T) {
	var s simplex
	s.setPoint(lin.V3{X: 1})
	s.push(lin.V3{X: 2})
	s.push(lin.V3{X: 3})
	if s.n != 3 {
		t.Fatalf("expected 3 points, got %d", s.n)
	}
	if s.pts[0].X != 3 || s.pts[1].X != 2 || s.pts[2].X != 1 {
		t.Fatalf("expected newest-first ordering, got %+v", s.pts)
	}
}

func TestToggleEdgeCancelsSharedEdges(t *testing.T) {
	verts := []lin.V3{{X: 0}, {X: 1}, {X: 2}}
	var edges []polyEdge
	edges = toggleEdge(edges, polyEdge{0, 1}, verts)
	if len(edges) != 1 {
		t.Fatalf("expected edge added, got %d", len(edges))
	}
	// The same edge in reverse orientation cancels instead of doubling.
	edges = toggleEdge(edges, polyEdge{1, 0}, verts)
	if len(edges) != 0 {
		t.Fatalf("expected shared edge to cancel, got %d", len(edges))
	}
}

func TestFaceNormalDistancePointsOutward(t *testing.T) {
	// A triangle on the plane x=1 with the origin inside the implied
	// polytope: the normal must point away from the origin regardless
	// of winding.
	verts := []lin.V3{{X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Z: 1}}
	for _, f := range []polyFace{{0, 1, 2}, {0, 2, 1}} {
		n, d := faceNormalDistance(f, verts)
		if n.X < 0.99 {
			t.Fatalf("expected +x outward normal for winding %+v, got %+v", f, n)
		}
		if math.Abs(d-1) > 1e-9 {
			t.Fatalf("expected plane distance 1, got %f", d)
		}
	}
}
