// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gazed/kinetic/math/lin"
)

// shape.go decodes the packed, binary collider descriptor stream: a
// raw packed struct stream, exactly what encoding/binary models
// directly.

// ShapeKind enumerates the wire-format shape types.
type ShapeKind uint32

const (
	ShapeSphere ShapeKind = iota
	ShapeCapsule
	ShapeBox
	ShapeConvexHull
	ShapeMesh
)

// ColliderDesc is one decoded record from the descriptor stream: a type
// tag plus whichever typed payload that type carries.
type ColliderDesc struct {
	Type ShapeKind

	Radius float32 // sphere, capsule
	Height float32 // capsule

	HalfSize lin.V3 // box

	Points []lin.V3 // convex hull, mesh

	MeshIndices []uint16 // mesh only
}

// DecodeColliderDescs reads n packed descriptor records from r, in the
// {u32 type, u32 size, ...payload} layout. Unknown shape type is
// a programmer-contract violation.
func DecodeColliderDescs(r io.Reader, n int) ([]ColliderDesc, error) {
	descs := make([]ColliderDesc, 0, n)
	for i := 0; i < n; i++ {
		var kind, size uint32
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return nil, fmt.Errorf("physics: read collider type: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("physics: read collider size: %w", err)
		}
		desc := ColliderDesc{Type: ShapeKind(kind)}
		switch desc.Type {
		case ShapeSphere:
			if err := binary.Read(r, binary.LittleEndian, &desc.Radius); err != nil {
				return nil, err
			}
		case ShapeCapsule:
			if err := binary.Read(r, binary.LittleEndian, &desc.Radius); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &desc.Height); err != nil {
				return nil, err
			}
		case ShapeBox:
			if err := readVec3(r, &desc.HalfSize); err != nil {
				return nil, err
			}
		case ShapeConvexHull:
			var num uint32
			if err := binary.Read(r, binary.LittleEndian, &num); err != nil {
				return nil, err
			}
			desc.Points = make([]lin.V3, num)
			for p := range desc.Points {
				if err := readVec3(r, &desc.Points[p]); err != nil {
					return nil, err
				}
			}
		case ShapeMesh:
			var numPoints uint32
			if err := binary.Read(r, binary.LittleEndian, &numPoints); err != nil {
				return nil, err
			}
			desc.Points = make([]lin.V3, numPoints)
			for p := range desc.Points {
				if err := readVec3(r, &desc.Points[p]); err != nil {
					return nil, err
				}
			}
			var numIndices uint32
			if err := binary.Read(r, binary.LittleEndian, &numIndices); err != nil {
				return nil, err
			}
			desc.MeshIndices = make([]uint16, numIndices)
			if err := binary.Read(r, binary.LittleEndian, &desc.MeshIndices); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("physics: unknown collider shape type %d", kind)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

func readVec3(r io.Reader, v *lin.V3) error {
	var xyz [3]float32
	if err := binary.Read(r, binary.LittleEndian, &xyz); err != nil {
		return err
	}
	v.X, v.Y, v.Z = float64(xyz[0]), float64(xyz[1]), float64(xyz[2])
	return nil
}

// buildCollider constructs the in-memory collider for one descriptor,
// applying the per-instance local scale derived from the owning unit's
// world transform.
func buildCollider(desc ColliderDesc, scale lin.V3) collider {
	var c collider
	switch desc.Type {
	case ShapeSphere:
		c = collider_sphere_create(desc.Radius * float32(maxAxis(scale)))
	case ShapeCapsule:
		c = collider_capsule_create(desc.Radius*float32(maxAxis(scale)), desc.Height/2*float32(scale.Y))
	case ShapeBox:
		c = collider_box_create(
			float32(desc.HalfSize.X*scale.X),
			float32(desc.HalfSize.Y*scale.Y),
			float32(desc.HalfSize.Z*scale.Z))
	case ShapeConvexHull:
		pts := make([]lin.V3, len(desc.Points))
		for i, p := range desc.Points {
			pts[i] = lin.V3{X: p.X * scale.X, Y: p.Y * scale.Y, Z: p.Z * scale.Z}
		}
		c = collider_convex_hull_create(pts)
	case ShapeMesh:
		pts := make([]lin.V3, len(desc.Points))
		for i, p := range desc.Points {
			pts[i] = lin.V3{X: p.X * scale.X, Y: p.Y * scale.Y, Z: p.Z * scale.Z}
		}
		c = collider_mesh_create(pts, desc.MeshIndices)
	}
	c.localScale = lin.V3{X: 1, Y: 1, Z: 1}
	return c
}

func maxAxis(v lin.V3) float64 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}
