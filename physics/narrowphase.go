// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/gazed/kinetic/math/lin"
)

// narrowphase.go is the convex intersection test (GJK) and penetration
// extraction (EPA) behind collider_get_contacts. Both run on the
// support functions in support.go, so they work for any convex collider
// pair: sphere, capsule, hull, or the vertex set of a mesh.

const (
	gjkMaxIterations = 100
	epaMaxIterations = 100
)

// simplex is the working set of Minkowski-difference points GJK
// refines toward the origin. pts[0] is always the most recent point.
type simplex struct {
	pts [4]lin.V3
	n   int
}

// push shifts the existing points back and makes p the newest point.
func (s *simplex) push(p lin.V3) {
	copy(s.pts[1:], s.pts[:3])
	s.pts[0] = p
	if s.n < 4 {
		s.n++
	}
}

func (s *simplex) setPoint(a lin.V3) {
	s.pts[0] = a
	s.n = 1
}

func (s *simplex) setLine(a, b lin.V3) {
	s.pts[0], s.pts[1] = a, b
	s.n = 2
}

func (s *simplex) setTriangle(a, b, c lin.V3) {
	s.pts[0], s.pts[1], s.pts[2] = a, b, c
	s.n = 3
}

// tripleCross is (a x b) x c, the usual GJK direction refinement.
func tripleCross(a, b, c lin.V3) lin.V3 {
	t := lin.NewV3().Cross(&a, &b)
	t.Cross(t, &c)
	return *t
}

// refine reduces the simplex to the feature nearest the origin and
// points dir at the origin from that feature. Returns true once a
// tetrahedron encloses the origin.
func (s *simplex) refine(dir *lin.V3) bool {
	switch s.n {
	case 2:
		s.lineRegion(dir)
	case 3:
		s.triangleRegion(s.pts[0], s.pts[1], s.pts[2], true, dir)
	case 4:
		return s.tetraRegion(dir)
	}
	return false
}

func (s *simplex) lineRegion(dir *lin.V3) {
	a, b := s.pts[0], s.pts[1]
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	if ab.Dot(ao) >= 0 {
		*dir = tripleCross(*ab, *ao, *ab)
		return
	}
	s.setPoint(a)
	*dir = *ao
}

// triangleRegion narrows the simplex given the triangle (a, e1, e2),
// where a is the newest point. flip allows the standalone triangle case
// to reverse its winding when the origin is below the face; the
// tetrahedron cases pass faces already wound toward the origin.
func (s *simplex) triangleRegion(a, e1, e2 lin.V3, flip bool, dir *lin.V3) {
	ao := lin.NewV3().Neg(&a)
	ae1 := lin.NewV3().Sub(&e1, &a)
	ae2 := lin.NewV3().Sub(&e2, &a)
	n := lin.NewV3().Cross(ae1, ae2)

	switch {
	case lin.NewV3().Cross(n, ae2).Dot(ao) >= 0:
		switch {
		case ae2.Dot(ao) >= 0:
			s.setLine(a, e2)
			*dir = tripleCross(*ae2, *ao, *ae2)
		case ae1.Dot(ao) >= 0:
			s.setLine(a, e1)
			*dir = tripleCross(*ae1, *ao, *ae1)
		default:
			s.setPoint(a)
			*dir = *ao
		}
	case lin.NewV3().Cross(ae1, n).Dot(ao) >= 0:
		if ae1.Dot(ao) >= 0 {
			s.setLine(a, e1)
			*dir = tripleCross(*ae1, *ao, *ae1)
		} else {
			s.setPoint(a)
			*dir = *ao
		}
	default:
		if flip && n.Dot(ao) < 0 {
			s.setTriangle(a, e2, e1)
			*dir = *lin.NewV3().Neg(n)
			return
		}
		s.setTriangle(a, e1, e2)
		*dir = *n
	}
}

// tetraRegion tests the three faces sharing the newest point a. The
// origin being behind all of them means it is enclosed; otherwise the
// simplex drops to the nearest face, edge or vertex region.
func (s *simplex) tetraRegion(dir *lin.V3) bool {
	a, b, c, d := s.pts[0], s.pts[1], s.pts[2], s.pts[3]
	ao := lin.NewV3().Neg(&a)
	ab := lin.NewV3().Sub(&b, &a)
	ac := lin.NewV3().Sub(&c, &a)
	ad := lin.NewV3().Sub(&d, &a)
	abc := lin.NewV3().Cross(ab, ac)
	acd := lin.NewV3().Cross(ac, ad)
	adb := lin.NewV3().Cross(ad, ab)

	outside := 0
	if abc.Dot(ao) >= 0 {
		outside |= 1
	}
	if acd.Dot(ao) >= 0 {
		outside |= 2
	}
	if adb.Dot(ao) >= 0 {
		outside |= 4
	}
	switch outside {
	case 0:
		return true // origin enclosed
	case 1:
		s.triangleRegion(a, b, c, false, dir)
	case 2:
		s.triangleRegion(a, c, d, false, dir)
	case 4:
		s.triangleRegion(a, d, b, false, dir)
	case 3: // only edge AC faces the origin
		if ac.Dot(ao) >= 0 {
			s.setLine(a, c)
			*dir = tripleCross(*ac, *ao, *ac)
		} else {
			s.setPoint(a)
			*dir = *ao
		}
	case 5: // only edge AB
		if ab.Dot(ao) >= 0 {
			s.setLine(a, b)
			*dir = tripleCross(*ab, *ao, *ab)
		} else {
			s.setPoint(a)
			*dir = *ao
		}
	case 6: // only edge AD
		if ad.Dot(ao) >= 0 {
			s.setLine(a, d)
			*dir = tripleCross(*ad, *ao, *ad)
		} else {
			s.setPoint(a)
			*dir = *ao
		}
	case 7: // only the vertex itself
		s.setPoint(a)
		*dir = *ao
	}
	return false
}

// gjkIntersects reports whether the two colliders overlap. When out is
// non-nil and they do, it receives the terminating tetrahedron for
// epaPenetration to expand.
func gjkIntersects(c1, c2 *collider, out *simplex) bool {
	var s simplex
	s.setPoint(support_point_of_minkowski_difference(c1, c2, lin.V3{Z: 1}))
	dir := lin.NewV3().Neg(&s.pts[0])
	for i := 0; i < gjkMaxIterations; i++ {
		next := support_point_of_minkowski_difference(c1, c2, *dir)
		if next.Dot(dir) < 0 {
			return false // the support plane separates the shapes
		}
		s.push(next)
		if s.refine(dir) {
			if out != nil {
				*out = s
			}
			return true
		}
	}
	return false
}

// polyFace and polyEdge index triples/pairs of EPA's polytope vertices.
type polyFace struct{ a, b, c int }
type polyEdge struct{ a, b int }

func polytopeFrom(s *simplex) ([]lin.V3, []polyFace) {
	if s.n != 4 {
		slog.Error("epa: expecting a full tetrahedron simplex", "points", s.n)
	}
	verts := []lin.V3{s.pts[0], s.pts[1], s.pts[2], s.pts[3]}
	faces := []polyFace{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 2, 3}}
	return verts, faces
}

// faceNormalDistance returns the face's outward unit normal and the
// distance from the origin to the face's plane. The winding of the
// face does not matter: an inward normal is detected and flipped, and
// an origin lying exactly on the plane is resolved by orienting the
// normal away from the rest of the (convex) polytope.
func faceNormalDistance(f polyFace, verts []lin.V3) (lin.V3, float64) {
	a, b, c := &verts[f.a], &verts[f.b], &verts[f.c]
	ab := lin.NewV3().Sub(b, a)
	ac := lin.NewV3().Sub(c, a)
	n := lin.NewV3().Cross(ab, ac).Unit()
	if n.X == 0 && n.Y == 0 && n.Z == 0 {
		slog.Error("epa: degenerate face normal")
		return lin.V3{}, 0
	}
	d := n.Dot(a)
	if d < 0 {
		n.Neg(n)
		d = -d
	} else if d == 0 {
		oriented := false
		for i := range verts {
			if side := n.Dot(&verts[i]); side != 0 {
				if side > 0 {
					n.Neg(n)
				}
				oriented = true
				break
			}
		}
		if !oriented {
			panic(fmt.Errorf("epa: polytope collapsed to a plane"))
		}
	}
	return *n, d
}

// toggleEdge removes e from edges if an equivalent edge (either
// orientation, by index or by vertex position, since support points can
// repeat under different indices) is already present, else appends it.
// Shared edges of adjacent removed faces cancel, leaving the horizon.
func toggleEdge(edges []polyEdge, e polyEdge, verts []lin.V3) []polyEdge {
	for i, cur := range edges {
		if (cur.a == e.a && cur.b == e.b) || (cur.a == e.b && cur.b == e.a) {
			return slices.Delete(edges, i, i+1)
		}
		cv1, cv2 := verts[cur.a], verts[cur.b]
		ev1, ev2 := verts[e.a], verts[e.b]
		if (cv1.Eq(&ev1) && cv2.Eq(&ev2)) || (cv1.Eq(&ev2) && cv2.Eq(&ev1)) {
			return slices.Delete(edges, i, i+1)
		}
	}
	return append(edges, e)
}

func triangleCentroid(a, b, c lin.V3) lin.V3 {
	v := lin.NewV3().Add(&a, &b)
	v.Add(v, &c)
	v.Scale(v, 1.0/3.0)
	return *v
}

func nearestFace(dists []float64) int {
	min := 0
	for i, d := range dists {
		if d < dists[min] {
			min = i
		}
	}
	return min
}

// epaPenetration expands the GJK termination simplex into a polytope
// over the Minkowski difference until the face nearest the origin stops
// moving, yielding the minimum-translation normal (pointing from c1
// toward c2) and the penetration depth.
func epaPenetration(c1, c2 *collider, s *simplex) (normal lin.V3, depth float64, ok bool) {
	const eps = 0.0001
	verts, faces := polytopeFrom(s)
	normals := make([]lin.V3, len(faces))
	dists := make([]float64, len(faces))
	for i, f := range faces {
		normals[i], dists[i] = faceNormalDistance(f, verts)
	}
	minIdx := nearestFace(dists)

	var edges []polyEdge
	for it := 0; it < epaMaxIterations; it++ {
		minNormal, minDist := normals[minIdx], dists[minIdx]
		p := support_point_of_minkowski_difference(c1, c2, minNormal)

		// The support point landing on the current nearest face means
		// the polytope cannot expand further in that direction.
		if math.Abs(minNormal.Dot(&p)-minDist) < eps {
			return minNormal, minDist, true
		}

		newIdx := len(verts)
		verts = append(verts, p)

		// Drop every face visible from the new point, collecting the
		// horizon edges left behind.
		for i := 0; i < len(faces); i++ {
			f := faces[i]
			centroid := triangleCentroid(verts[f.a], verts[f.b], verts[f.c])
			if normals[i].Dot(lin.NewV3().Sub(&p, &centroid)) > 0 {
				edges = toggleEdge(edges, polyEdge{f.a, f.b}, verts)
				edges = toggleEdge(edges, polyEdge{f.b, f.c}, verts)
				edges = toggleEdge(edges, polyEdge{f.c, f.a}, verts)
				faces = slices.Delete(faces, i, i+1)
				normals = slices.Delete(normals, i, i+1)
				dists = slices.Delete(dists, i, i+1)
				i--
			}
		}

		// Stitch the new point to the horizon.
		for _, e := range edges {
			f := polyFace{e.a, e.b, newIdx}
			faces = append(faces, f)
			n, d := faceNormalDistance(f, verts)
			normals = append(normals, n)
			dists = append(dists, d)
		}
		edges = edges[:0]
		minIdx = nearestFace(dists)
	}
	slog.Warn("EPA did not converge.")
	return lin.V3{}, 0, false
}
