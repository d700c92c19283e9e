// Copyright © 2024 Galvanized Logic Inc.

package physics

import "github.com/gazed/kinetic/math/lin"

// body.go carries the rigid-body dynamics state addressed by an
// ActorInstance, plus the force/torque/inertia accessors the
// integrator (world.go) and the joint constraints (constraint.go)
// read it through.

// Force is a single applied force or impulse, recorded at a world-space
// position so torque can be derived (externalTorque).
type Force struct {
	position lin.V3
	newtons  lin.V3
}

// Body is the dynamics state of one actor: a rigid body driven by the
// compact integrator in world.go. Static and kinematic actors keep a
// Body (for transform/collider bookkeeping) but are never integrated.
type Body struct {
	world_position lin.V3
	world_rotation lin.Q

	linear_velocity  lin.V3
	angular_velocity lin.V3

	colliders              []collider
	bounding_sphere_radius float64

	mass                   float64
	inverse_mass           float64
	inertia_tensor         lin.M3
	inverse_inertia_tensor lin.M3

	forces []Force

	fixed     bool // true for static and kinematic bodies: never integrated
	kinematic bool
	trigger   bool // no contact response: emits trigger events only

	restitution      float64
	friction         float64
	rollingFriction  float64
	spinningFriction float64

	linearDamping  float64
	angularDamping float64

	// linear/angular factor masks lock_flags bits onto velocity
	// integration.
	linearFactor  lin.V3
	angularFactor lin.V3

	gravity         lin.V3
	gravityDisabled bool

	// userObjectPointer is the body's back-pointer: it is
	// this body's current ActorInstance index, or Invalid for a mover's
	// ghost (body is unused in that case, but the field is kept so
	// broadphase code has one shape regardless of owner).
	userObjectPointer uint32

	filter Filter
}

// AddForce records a force acting at a world-space position. asImpulse
// is not read: every entry is queued as a force and applied by the
// integration step.
func (b *Body) AddForce(position, newtons lin.V3, asImpulse bool) {
	b.forces = append(b.forces, Force{position: position, newtons: newtons})
}

func (b *Body) clear_forces() {
	b.forces = b.forces[:0]
}

// externalForce sums the forces queued on the body since the last
// clear_forces.
func (b *Body) externalForce() lin.V3 {
	total := lin.NewV3()
	for i := range b.forces {
		total.Add(total, &b.forces[i].newtons)
	}
	return *total
}

// externalTorque sums the torque each queued force exerts about the
// center of mass (assumed at the body origin).
func (b *Body) externalTorque() lin.V3 {
	total := lin.NewV3()
	arm := lin.NewV3()
	for i := range b.forces {
		arm.Sub(&b.forces[i].position, &b.world_position)
		total.Add(total, arm.Cross(arm, &b.forces[i].newtons))
	}
	return *total
}

// worldInvInertia is the body's inverse inertia tensor rotated into
// world space. Only valid while the rotation stays orthogonal, which
// the integrator guarantees by renormalizing every substep.
func (b *Body) worldInvInertia() lin.M3 {
	rot := lin.NewM3().SetQ(&b.world_rotation)
	m := lin.NewM3().Mult(rot, &b.inverse_inertia_tensor)
	m.Mult(m, lin.NewM3().Transpose(rot))
	return *m
}

// newBody constructs a Body from creation-time parameters shared by
// actor_create_instances.
func newBody(pos lin.V3, rot lin.Q, mass float64, cols []collider, mat Material, class ActorClass, lockFlags uint32, static, kinematic bool) *Body {
	b := &Body{
		world_position:   pos,
		world_rotation:   rot,
		colliders:        cols,
		fixed:            static || kinematic,
		kinematic:        kinematic,
		restitution:      float64(mat.Restitution),
		friction:         float64(mat.Friction),
		rollingFriction:  float64(mat.RollingFriction),
		spinningFriction: float64(mat.SpinningFriction),
		linearDamping:    float64(class.LinearDamping),
		angularDamping:   float64(class.AngularDamping),
		trigger:          class.Flags&ActorClassTrigger != 0,
		linearFactor:     lockFactor(lockFlags, 0),
		angularFactor:    lockFactor(lockFlags, 3),
	}
	b.bounding_sphere_radius = colliders_get_bounding_sphere_radius(cols)
	if static || mass == 0 {
		b.mass, b.inverse_mass = 0, 0
	} else {
		b.mass = mass
		b.inverse_mass = 1.0 / mass
		b.inertia_tensor = colliders_get_default_inertia_tensor(cols, mass)
		b.inverse_inertia_tensor = *lin.NewM3().Inv(&b.inertia_tensor)
	}
	return b
}

// lockFactor turns three consecutive lock_flags bits starting at
// bitOffset into a (1-locked) scale factor per axis: bit0 TX, bit1 TY,
// bit2 TZ, bit3 RX, bit4 RY, bit5 RZ.
func lockFactor(lockFlags uint32, bitOffset uint) lin.V3 {
	f := lin.V3{X: 1, Y: 1, Z: 1}
	if lockFlags&(1<<bitOffset) != 0 {
		f.X = 0
	}
	if lockFlags&(1<<(bitOffset+1)) != 0 {
		f.Y = 0
	}
	if lockFlags&(1<<(bitOffset+2)) != 0 {
		f.Z = 0
	}
	return f
}

// colliders_get_bounding_sphere_radius returns the largest bounding
// radius across a body's colliders (a body may have more than one in
// principle; actors in this module always have exactly one).
func colliders_get_bounding_sphere_radius(cols []collider) float64 {
	max := 0.0
	for i := range cols {
		if r := collider_bounding_sphere_radius(&cols[i]); r > max {
			max = r
		}
	}
	return max
}

// colliders_get_default_inertia_tensor approximates the inertia tensor
// for a body's collider set. Spheres use the closed form; everything
// else is estimated from vertex mass points with the center of mass
// assumed at the origin.
func colliders_get_default_inertia_tensor(cols []collider, mass float64) lin.M3 {
	if len(cols) == 1 && cols[0].ctype == collider_TYPE_SPHERE {
		I := (2.0 / 5.0) * mass * float64(cols[0].sphere.radius*cols[0].sphere.radius)
		m := lin.NewM3()
		m.Xx, m.Yy, m.Zz = I, I, I
		return *m
	}
	verts := []lin.V3{}
	for i := range cols {
		switch cols[i].ctype {
		case collider_TYPE_CONVEX_HULL:
			verts = append(verts, cols[i].convex_hull.vertices...)
		case collider_TYPE_MESH:
			verts = append(verts, cols[i].mesh.vertices...)
		case collider_TYPE_CAPSULE:
			verts = append(verts,
				lin.V3{Y: float64(cols[i].capsule.halfHeight)},
				lin.V3{Y: -float64(cols[i].capsule.halfHeight)})
		}
	}
	if len(verts) == 0 {
		m := lin.NewM3()
		m.Xx, m.Yy, m.Zz = mass, mass, mass
		return *m
	}
	massPerVertex := mass / float64(len(verts))
	result := lin.NewM3()
	for _, v := range verts {
		result.Xx += massPerVertex * (v.Y*v.Y + v.Z*v.Z)
		result.Yy += massPerVertex * (v.X*v.X + v.Z*v.Z)
		result.Zz += massPerVertex * (v.X*v.X + v.Y*v.Y)
	}
	return *result
}
