// Copyright © 2024 Galvanized Logic Inc.

package lin

// pose.go adds conversions between the rotation+translation transform T
// used internally by physics and the 4x4 matrices expected by external
// systems such as scene graphs.

// M4FromT expands transform t into the 4x4 matrix m, discarding nothing
// since T already excludes scale and shear. The updated matrix m is
// returned so callers can chain, eg: lin.NewM4().M4FromT(t).
func (m *M4) M4FromT(t *T) *M4 {
	m.SetQ(t.Rot)
	m.Wx, m.Wy, m.Wz, m.Ww = t.Loc.X, t.Loc.Y, t.Loc.Z, 1
	return m
}

// TFromM4 strips scale from matrix m, by dividing each basis row by its
// length, and returns the resulting rotation+translation transform in t.
// The scale itself is not kept since callers needing local scaling apply
// it directly to collider shapes at creation time instead.
func (t *T) TFromM4(m *M4) *T {
	s := ScaleOfM4(m)
	t.Rot.SetM(&M3{
		Xx: m.Xx / s.X, Xy: m.Xy / s.X, Xz: m.Xz / s.X,
		Yx: m.Yx / s.Y, Yy: m.Yy / s.Y, Yz: m.Yz / s.Y,
		Zx: m.Zx / s.Z, Zy: m.Zy / s.Z, Zz: m.Zz / s.Z,
	})
	t.Loc.SetS(m.Wx, m.Wy, m.Wz)
	return t
}

// ScaleOfM4 returns the per-axis world scale baked into matrix m by
// measuring the length of each basis row. Used once at collider creation
// time since colliders do not track scale changes afterwards.
func ScaleOfM4(m *M4) *V3 {
	x := (&V3{m.Xx, m.Xy, m.Xz}).Len()
	y := (&V3{m.Yx, m.Yy, m.Yz}).Len()
	z := (&V3{m.Zx, m.Zy, m.Zz}).Len()
	return &V3{X: x, Y: y, Z: z}
}
