// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// joint.go is the joint store: fixed, spring and hinge constraints
// connecting two actors, solved with the XPBD positional/angular
// constraint primitives in constraint.go.

// JointType enumerates the joint kinds.
type JointType uint8

const (
	JointFixed JointType = iota
	JointSpring
	JointHinge
)

// JointDesc describes a joint at creation time.
type JointDesc struct {
	Type JointType

	AnchorA, AnchorB lin.V3 // local-space anchor on each body

	HingeAxis lin.V3 // local-space axis, hinge only

	Compliance float64 // 0 = rigid; >0 = springy (spring joint)
	BreakForce float64 // impulse threshold above which the joint breaks
	MotorSpeed float64 // hinge motor target angular speed
	LowerLimit float64 // hinge angular limit, radians
	UpperLimit float64
}

type joint struct {
	a, b      ActorInstance
	desc      JointDesc
	lambdaPos float64
	lambdaAng float64
	broken    bool
}

type jointStore struct {
	joints []joint
}

func newJointStore() *jointStore { return &jointStore{} }

// create builds a joint between two existing actors. The store does
// not validate actor liveness itself; World.JointCreate does, since
// only it holds both stores.
func (s *jointStore) create(a, b ActorInstance, desc JointDesc) JointInstance {
	idx := uint32(len(s.joints))
	s.joints = append(s.joints, joint{a: a, b: b, desc: desc})
	return JointInstance{idx}
}

// destroy removes a joint with the usual swap-and-pop.
func (s *jointStore) destroy(inst JointInstance) {
	if !inst.IsValid() || inst.i >= uint32(len(s.joints)) {
		slog.Error("joint_destroy: invalid instance")
		panic("physics: invalid joint instance")
	}
	last := uint32(len(s.joints)) - 1
	s.joints[inst.i] = s.joints[last]
	s.joints = s.joints[:last]
}

func (s *jointStore) get(inst JointInstance) *joint {
	if !inst.IsValid() || inst.i >= uint32(len(s.joints)) {
		slog.Error("joint store: invalid instance")
		panic("physics: invalid joint instance")
	}
	return &s.joints[inst.i]
}

// solveJoints runs one XPBD pass over every live joint for substep
// duration h.
func solveJoints(joints []joint, bodyOf func(ActorInstance) *Body, h float64) {
	for i := range joints {
		j := &joints[i]
		if j.broken {
			continue
		}
		b1, b2 := bodyOf(j.a), bodyOf(j.b)
		solveJointPositional(j, b1, b2, h)
		if j.desc.Type == JointHinge {
			solveJointAngular(j, b1, b2, h)
		}
	}
}

// solveJointPositional pulls the two anchor points together, the shared
// behavior of fixed, spring and hinge joints.
func solveJointPositional(j *joint, b1, b2 *Body, h float64) {
	c := newPositionalConstraint(b1, b2, j.desc.AnchorA, j.desc.AnchorB)
	p1 := lin.NewV3().Add(&b1.world_position, &c.arm1)
	p2 := lin.NewV3().Add(&b2.world_position, &c.arm2)
	deltaX := *lin.NewV3().Sub(p1, p2)

	compliance := j.desc.Compliance
	if j.desc.Type == JointFixed {
		compliance = 0
	}
	deltaLambda := c.deltaLambda(h, compliance, j.lambdaPos, deltaX)
	j.lambdaPos += deltaLambda
	c.apply(deltaLambda, deltaX)

	if j.desc.BreakForce > 0 {
		impulse := deltaLambda / h
		if impulse < 0 {
			impulse = -impulse
		}
		if impulse > j.desc.BreakForce {
			j.broken = true
		}
	}
}

// solveJointAngular keeps the hinge axis aligned between the two
// bodies, using the angular constraint primitive for the two
// perpendicular-to-axis components. Motor and limit handling is not
// modelled by the compact integrator.
func solveJointAngular(j *joint, b1, b2 *Body, h float64) {
	axis1 := lin.NewV3().MultQ(&j.desc.HingeAxis, &b1.world_rotation).Unit()
	axis2 := lin.NewV3().MultQ(&j.desc.HingeAxis, &b2.world_rotation).Unit()
	deltaQ := lin.NewV3().Cross(axis1, axis2)

	c := newAngularConstraint(b1, b2)
	deltaLambda := c.deltaLambda(h, 0, j.lambdaAng, *deltaQ)
	j.lambdaAng += deltaLambda
	c.apply(deltaLambda, *deltaQ)
}
