// Copyright © 2014-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"math"

	"github.com/gazed/kinetic/math/lin"
)

// caster.go implements ray and shape casts. The ray-sphere test
// follows http://en.wikipedia.org/wiki/Line-sphere_intersection;
// boxes use the slab method. Mover ghosts are invisible to casts: the
// cast entry points in world.go test only the actor store's bodies.

// RayHit is the result of cast_ray/cast_ray_all: position, normal,
// the hit fraction along the ray, and the owning unit/actor.
type RayHit struct {
	Position lin.V3
	Normal   lin.V3
	Time     float64
	Unit     UnitId
	Actor    ActorInstance
}

// castRaySphere intersects a ray (origin, dir, maxDist) with a sphere,
// returning the hit fraction along the ray in [0,1].
func castRaySphere(origin, dir lin.V3, maxDist float64, c *collider_Sphere) (hit bool, t float64, normal lin.V3) {
	sc := lin.NewV3().Sub(&c.center, &origin)
	d0 := dir.Dot(sc)
	if d0 < 0 {
		return false, 0, normal
	}
	radius2 := float64(c.radius) * float64(c.radius)
	d1 := sc.Dot(sc) - d0*d0
	if d1 > radius2 {
		return false, 0, normal
	}
	dist := d0 - math.Sqrt(radius2-d1)
	if dist < 0 || dist > maxDist {
		return false, 0, normal
	}
	point := lin.NewV3().Scale(&dir, dist)
	point.Add(point, &origin)
	n := lin.NewV3().Sub(point, &c.center).Unit()
	return true, dist / maxDist, *n
}

// castRayBox intersects a ray with a box collider (stored as an
// 8-vertex convex hull) using the slab method.
func castRayBox(origin, dir lin.V3, maxDist float64, hull *collider_Convex_Hull) (hit bool, t float64, normal lin.V3) {
	if len(hull.transformed_vertices) != 8 {
		return false, 0, normal // not a box-shaped hull
	}
	min, max := hull.transformed_vertices[0], hull.transformed_vertices[0]
	for _, v := range hull.transformed_vertices[1:] {
		min.X, max.X = math.Min(min.X, v.X), math.Max(max.X, v.X)
		min.Y, max.Y = math.Min(min.Y, v.Y), math.Max(max.Y, v.Y)
		min.Z, max.Z = math.Min(min.Z, v.Z), math.Max(max.Z, v.Z)
	}
	tmin, tmax := 0.0, maxDist
	axes := []struct{ o, d, lo, hi float64 }{
		{origin.X, dir.X, min.X, max.X},
		{origin.Y, dir.Y, min.Y, max.Y},
		{origin.Z, dir.Z, min.Z, max.Z},
	}
	hitAxis := -1
	for i, a := range axes {
		if lin.AeqZ(a.d) {
			if a.o < a.lo || a.o > a.hi {
				return false, 0, normal
			}
			continue
		}
		inv := 1.0 / a.d
		t1, t2 := (a.lo-a.o)*inv, (a.hi-a.o)*inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			hitAxis = i
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false, 0, normal
		}
	}
	if hitAxis < 0 || tmin < 0 {
		return false, 0, normal
	}
	switch hitAxis {
	case 0:
		normal = lin.V3{X: 1}
	case 1:
		normal = lin.V3{Y: 1}
	case 2:
		normal = lin.V3{Z: 1}
	}
	if dir.Dot(&normal) > 0 {
		normal.Scale(&normal, -1)
	}
	return true, tmin / maxDist, normal
}

// castAgainstCollider dispatches to the shape-specific ray test. Mesh
// and capsule colliders fall back to a bounding-sphere approximation;
// no current caller needs an exact mesh or capsule raycast.
func castAgainstCollider(origin, dir lin.V3, maxDist float64, c *collider) (hit bool, t float64, normal lin.V3) {
	switch c.ctype {
	case collider_TYPE_SPHERE:
		return castRaySphere(origin, dir, maxDist, &c.sphere)
	case collider_TYPE_CONVEX_HULL:
		if h, t2, n := castRayBox(origin, dir, maxDist, &c.convex_hull); h {
			return h, t2, n
		}
		return castRaySphereApprox(origin, dir, maxDist, c)
	default:
		return castRaySphereApprox(origin, dir, maxDist, c)
	}
}

// castRaySphereApprox approximates a non-sphere, non-box collider with
// its bounding sphere for raycasting purposes.
func castRaySphereApprox(origin, dir lin.V3, maxDist float64, c *collider) (hit bool, t float64, normal lin.V3) {
	sp := collider_Sphere{radius: float32(collider_bounding_sphere_radius(c)), center: colliderCenter(c)}
	return castRaySphere(origin, dir, maxDist, &sp)
}

func colliderCenter(c *collider) lin.V3 {
	switch c.ctype {
	case collider_TYPE_SPHERE:
		return c.sphere.center
	case collider_TYPE_CAPSULE:
		return c.capsule.center
	case collider_TYPE_CONVEX_HULL:
		return centroid(c.convex_hull.transformed_vertices)
	case collider_TYPE_MESH:
		return centroid(c.mesh.transformed_vertices)
	}
	return lin.V3{}
}

func centroid(vs []lin.V3) lin.V3 {
	c := lin.V3{}
	for _, v := range vs {
		c.X += v.X
		c.Y += v.Y
		c.Z += v.Z
	}
	if len(vs) > 0 {
		c.X /= float64(len(vs))
		c.Y /= float64(len(vs))
		c.Z /= float64(len(vs))
	}
	return c
}
