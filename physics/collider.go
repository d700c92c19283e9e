// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// collider.go holds the shape data referenced by actors and movers.
// Narrowphase contact extraction (collider_get_contacts) composes the
// GJK/EPA/support pipeline (narrowphase.go, support.go) rather than a
// clipping-based manifold builder: it keeps a single representative
// contact point per overlapping pair, which is sufficient for the
// penetration-recovery and touch-event consumers (both only ever read
// the first contact of a manifold).

// collider_Type enumerates the shape variants of the descriptor stream.
type collider_Type uint8

const (
	collider_TYPE_SPHERE collider_Type = iota
	collider_TYPE_CAPSULE
	collider_TYPE_CONVEX_HULL // also used for boxes, built as 8-vertex hulls
	collider_TYPE_MESH
)

// collider_Sphere is a ball centered at `center` (local space).
type collider_Sphere struct {
	radius float32
	center lin.V3
}

// collider_Capsule is two sphere caps joined by a cylinder along the
// local Y axis, matching the mover's capsule shape.
type collider_Capsule struct {
	radius     float32
	halfHeight float32
	center     lin.V3

	// transformed cap centers, recomputed each collider_update.
	capA, capB lin.V3
}

// collider_Convex_Hull stores a point cloud (copied as given) and
// its transformed copy. Face/edge adjacency is not retained: GJK/EPA only
// need a support function over the vertex set.
type collider_Convex_Hull struct {
	vertices             []lin.V3
	transformed_vertices []lin.V3
}

// collider_Mesh is a static triangle soup. It only supports being the
// *static* side of a narrowphase test (via its vertex support function)
// and ray intersection; dynamic mesh-vs-mesh is out of scope.
type collider_Mesh struct {
	vertices             []lin.V3
	indices              []uint16
	transformed_vertices []lin.V3
}

// collider is the tagged union backing one ColliderInstance.
type collider struct {
	ctype       collider_Type
	sphere      collider_Sphere
	capsule     collider_Capsule
	convex_hull collider_Convex_Hull
	mesh        collider_Mesh

	localScale lin.V3 // per-instance scaling applied at creation
}

// collider_Contact is a single representative contact: a world-space
// point, the separating normal (B - A direction) and signed penetration
// (positive = overlapping).
type collider_Contact struct {
	point       lin.V3
	normal      lin.V3
	penetration float64
}

func collider_sphere_create(radius float32) collider {
	return collider{ctype: collider_TYPE_SPHERE, sphere: collider_Sphere{radius: radius}}
}

func collider_capsule_create(radius, halfHeight float32) collider {
	return collider{ctype: collider_TYPE_CAPSULE, capsule: collider_Capsule{radius: radius, halfHeight: halfHeight}}
}

// collider_box_create builds a box from half-extents as an 8-vertex
// convex hull.
func collider_box_create(hx, hy, hz float32) collider {
	x, y, z := float64(hx), float64(hy), float64(hz)
	verts := []lin.V3{
		{X: -x, Y: +y, Z: +z}, {X: -x, Y: -y, Z: +z},
		{X: -x, Y: +y, Z: -z}, {X: -x, Y: -y, Z: -z},
		{X: +x, Y: +y, Z: +z}, {X: +x, Y: -y, Z: +z},
		{X: +x, Y: +y, Z: -z}, {X: +x, Y: -y, Z: -z},
	}
	return collider_convex_hull_create(verts)
}

// collider_convex_hull_create builds a hull collider from a point
// cloud. Only the vertex set is kept: face adjacency would only be
// needed for SAT clipping, which support-point contact extraction
// replaces (see file doc above).
func collider_convex_hull_create(vertices []lin.V3) collider {
	hull := make([]lin.V3, len(vertices))
	copy(hull, vertices)
	return collider{
		ctype: collider_TYPE_CONVEX_HULL,
		convex_hull: collider_Convex_Hull{
			vertices:             hull,
			transformed_vertices: append([]lin.V3{}, hull...),
		},
	}
}

// collider_mesh_create builds a static triangle-soup collider from a
// vertex/index buffer decoded from the descriptor stream.
func collider_mesh_create(vertices []lin.V3, indices []uint16) collider {
	return collider{
		ctype: collider_TYPE_MESH,
		mesh: collider_Mesh{
			vertices:             vertices,
			indices:              indices,
			transformed_vertices: append([]lin.V3{}, vertices...),
		},
	}
}

// collider_update recomputes every transformed point from the collider's
// owning body/mover transform. Spheres and capsules just move their
// center(s); hulls and meshes re-project every vertex.
func collider_update(c *collider, translation lin.V3, rotation *lin.Q) {
	switch c.ctype {
	case collider_TYPE_SPHERE:
		c.sphere.center = translation
	case collider_TYPE_CAPSULE:
		c.capsule.center = translation
		up := lin.NewV3().SetS(0, float64(c.capsule.halfHeight), 0).MultQ(lin.NewV3().SetS(0, float64(c.capsule.halfHeight), 0), rotation)
		c.capsule.capA.Add(&translation, up)
		c.capsule.capB.Sub(&translation, up)
	case collider_TYPE_CONVEX_HULL:
		for i := range c.convex_hull.vertices {
			v := c.convex_hull.vertices[i]
			scaled := lin.V3{X: v.X * c.localScaleOrOne().X, Y: v.Y * c.localScaleOrOne().Y, Z: v.Z * c.localScaleOrOne().Z}
			rotated := lin.NewV3().MultQ(&scaled, rotation)
			c.convex_hull.transformed_vertices[i] = *lin.NewV3().Add(rotated, &translation)
		}
	case collider_TYPE_MESH:
		for i := range c.mesh.vertices {
			v := c.mesh.vertices[i]
			rotated := lin.NewV3().MultQ(&v, rotation)
			c.mesh.transformed_vertices[i] = *lin.NewV3().Add(rotated, &translation)
		}
	default:
		slog.Error("collider_update: unsupported collider type", "collider_type", c.ctype)
	}
}

// localScaleOrOne defaults an unset localScale to (1,1,1) so a collider
// created without an explicit scale behaves as unscaled.
func (c *collider) localScaleOrOne() lin.V3 {
	if c.localScale.X == 0 && c.localScale.Y == 0 && c.localScale.Z == 0 {
		return lin.V3{X: 1, Y: 1, Z: 1}
	}
	return c.localScale
}

// collider_bounding_sphere_radius returns a conservative bounding radius
// used by the broadphase.
func collider_bounding_sphere_radius(c *collider) float64 {
	switch c.ctype {
	case collider_TYPE_SPHERE:
		return float64(c.sphere.radius)
	case collider_TYPE_CAPSULE:
		return float64(c.capsule.halfHeight + c.capsule.radius)
	case collider_TYPE_CONVEX_HULL:
		max := 0.0
		for _, v := range c.convex_hull.vertices {
			if d := v.Len(); d > max {
				max = d
			}
		}
		return max
	case collider_TYPE_MESH:
		max := 0.0
		for _, v := range c.mesh.vertices {
			if d := v.Len(); d > max {
				max = d
			}
		}
		return max
	}
	slog.Error("collider_bounding_sphere_radius: unsupported collider type", "collider_type", c.ctype)
	return 0
}

// collider_get_contacts returns zero or one contact for the pair.
// Sphere pairs are solved analytically (GJK/EPA is both slower and
// numerically poor for spheres). Everything else goes through GJK+EPA
// and a support-point contact (see file doc).
func collider_get_contacts(c1, c2 *collider) []collider_Contact {
	if c1.ctype == collider_TYPE_SPHERE && c2.ctype == collider_TYPE_SPHERE {
		d := lin.NewV3().Sub(&c2.sphere.center, &c1.sphere.center)
		dist := d.Len()
		minDist := float64(c1.sphere.radius + c2.sphere.radius)
		if dist >= minDist {
			return nil
		}
		normal := lin.V3{X: 1, Y: 0, Z: 0}
		if dist > lin.Epsilon {
			normal = *lin.NewV3().Scale(d, 1.0/dist)
		}
		penetration := minDist - dist
		point := lin.NewV3().Scale(&normal, float64(c1.sphere.radius)-penetration/2)
		point.Add(point, &c1.sphere.center)
		return []collider_Contact{{point: *point, normal: normal, penetration: penetration}}
	}

	var s simplex
	if !gjkIntersects(c1, c2, &s) {
		return nil
	}
	normal, penetration, ok := epaPenetration(c1, c2, &s)
	if !ok {
		return nil
	}
	pointOnA := support_point(c1, normal)
	pointOnB := support_point(c2, *lin.NewV3().Scale(&normal, -1))
	point := lin.NewV3().Add(&pointOnA, &pointOnB)
	point.Scale(point, 0.5)
	return []collider_Contact{{point: *point, normal: normal, penetration: penetration}}
}

// util_get_model_matrix_no_scale builds a rotation+translation matrix
// with no scaling baked in.
func util_get_model_matrix_no_scale(rotation *lin.Q, translation lin.V3) lin.M4 {
	m := lin.NewM4().SetQ(rotation)
	m.Wx, m.Wy, m.Wz, m.Ww = translation.X, translation.Y, translation.Z, 1
	return *m
}
