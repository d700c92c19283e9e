// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"log/slog"

	"github.com/gazed/kinetic/math/lin"
)

// constraint.go holds the XPBD positional and angular constraint
// primitives the joint store solves with (joint.go). Each constraint
// caches the per-substep data that does not change across its solve:
// the bodies, their world-space anchor arms, and their world-space
// inverse inertia tensors.

// Violations below this magnitude are ignored: dividing by them would
// amplify floating-point noise into large corrections.
const constraintEpsilon = 1e-50

// positionalConstraint pulls an anchor point on each body together.
type positionalConstraint struct {
	b1, b2       *Body
	arm1, arm2   lin.V3 // world-space vectors from body origin to anchor
	invI1, invI2 lin.M3
}

func newPositionalConstraint(b1, b2 *Body, anchor1, anchor2 lin.V3) positionalConstraint {
	c := positionalConstraint{b1: b1, b2: b2}
	c.arm1.MultQ(&anchor1, &b1.world_rotation)
	c.arm2.MultQ(&anchor2, &b2.world_rotation)
	c.invI1 = b1.worldInvInertia()
	c.invI2 = b2.worldInvInertia()
	return c
}

// deltaLambda computes the XPBD Lagrange-multiplier increment for the
// positional violation deltaX over substep h. lambda is the multiplier
// accumulated so far this substep; compliance is the inverse stiffness
// (0 = rigid).
func (c *positionalConstraint) deltaLambda(h, compliance, lambda float64, deltaX lin.V3) float64 {
	mag := deltaX.Len()
	if mag <= constraintEpsilon {
		return 0
	}
	n := lin.NewV3().Scale(&deltaX, 1/mag)
	w1 := c.b1.inverse_mass + generalizedInverseMass(&c.arm1, n, &c.invI1)
	w2 := c.b2.inverse_mass + generalizedInverseMass(&c.arm2, n, &c.invI2)
	if w1+w2 == 0 {
		slog.Error("positional constraint: zero inverse mass sum")
	}
	alpha := compliance / (h * h)
	return (-mag - alpha*lambda) / (w1 + w2 + alpha)
}

// generalizedInverseMass is the rotational contribution of a body's
// inverse mass as seen through an anchor arm along direction n.
func generalizedInverseMass(arm, n *lin.V3, invI *lin.M3) float64 {
	rn := lin.NewV3().Cross(arm, n)
	return rn.Dot(lin.NewV3().MultMv(invI, rn))
}

// apply moves and rotates both bodies by the impulse deltaLambda along
// the violation direction, each scaled by its own inverse mass.
func (c *positionalConstraint) apply(deltaLambda float64, deltaX lin.V3) {
	mag := deltaX.Len()
	if mag <= constraintEpsilon {
		return
	}
	impulse := lin.NewV3().Scale(&deltaX, deltaLambda/mag)
	if !c.b1.fixed {
		c.b1.world_position.Add(&c.b1.world_position, lin.NewV3().Scale(impulse, c.b1.inverse_mass))
	}
	if !c.b2.fixed {
		c.b2.world_position.Add(&c.b2.world_position, lin.NewV3().Scale(impulse, -c.b2.inverse_mass))
	}
	rotateByImpulse(c.b1, lin.NewV3().Cross(&c.arm1, impulse), &c.invI1, 0.5)
	rotateByImpulse(c.b2, lin.NewV3().Cross(&c.arm2, impulse), &c.invI2, -0.5)
}

// angularConstraint corrects a pure rotational violation between two
// bodies, e.g. a hinge axis drifting out of alignment.
type angularConstraint struct {
	b1, b2       *Body
	invI1, invI2 lin.M3
}

func newAngularConstraint(b1, b2 *Body) angularConstraint {
	return angularConstraint{b1: b1, b2: b2, invI1: b1.worldInvInertia(), invI2: b2.worldInvInertia()}
}

// deltaLambda mirrors the positional version for a rotational
// violation deltaQ (axis scaled by angle).
func (c *angularConstraint) deltaLambda(h, compliance, lambda float64, deltaQ lin.V3) float64 {
	theta := deltaQ.Len()
	if theta <= constraintEpsilon {
		return 0
	}
	n := lin.NewV3().Scale(&deltaQ, 1/theta)
	w1 := n.Dot(lin.NewV3().MultMv(&c.invI1, n))
	w2 := n.Dot(lin.NewV3().MultMv(&c.invI2, n))
	alpha := compliance / (h * h)
	return (-theta - alpha*lambda) / (w1 + w2 + alpha)
}

func (c *angularConstraint) apply(deltaLambda float64, deltaQ lin.V3) {
	theta := deltaQ.Len()
	if theta <= constraintEpsilon {
		return
	}
	impulse := lin.NewV3().Scale(&deltaQ, -deltaLambda/theta)
	rotateByImpulse(c.b1, impulse, &c.invI1, 0.5)
	rotateByImpulse(c.b2, impulse, &c.invI2, -0.5)
}

// rotateByImpulse folds an angular impulse into a body's orientation:
// the impulse becomes an angular velocity through the inverse inertia
// tensor, and half its quaternion derivative (signed, so the two sides
// of a constraint rotate in opposition) is added to the rotation.
func rotateByImpulse(b *Body, angImpulse *lin.V3, invI *lin.M3, half float64) {
	if b.fixed {
		return
	}
	w := lin.NewV3().MultMv(invI, angImpulse)
	wq := lin.NewQ().SetS(w.X, w.Y, w.Z, 0)
	dq := lin.NewQ().Mult(&b.world_rotation, wq)
	b.world_rotation.X += half * dq.X
	b.world_rotation.Y += half * dq.Y
	b.world_rotation.Z += half * dq.Z
	b.world_rotation.W += half * dq.W
	b.world_rotation.Unit()
}
