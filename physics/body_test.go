// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/gazed/kinetic/math/lin"
)

func TestExternalForceSumsQueuedForces(t *testing.T) {
	b := &Body{}
	b.AddForce(lin.V3{}, lin.V3{X: 1}, false)
	b.AddForce(lin.V3{}, lin.V3{X: 2, Y: 3}, false)
	total := b.externalForce()
	if total.X != 3 || total.Y != 3 {
		t.Fatalf("expected (3,3,0), got %+v", total)
	}
}

func TestClearForcesEmptiesList(t *testing.T) {
	b := &Body{}
	b.AddForce(lin.V3{}, lin.V3{X: 1}, false)
	b.clear_forces()
	if len(b.forces) != 0 {
		t.Fatalf("expected forces cleared, got %d remaining", len(b.forces))
	}
}

func TestExternalTorqueZeroForForceThroughOrigin(t *testing.T) {
	b := &Body{}
	b.AddForce(lin.V3{}, lin.V3{X: 1}, false) // acts at the origin: no lever arm
	torque := b.externalTorque()
	if torque != (lin.V3{}) {
		t.Fatalf("expected zero torque, got %+v", torque)
	}
}

func TestExternalTorqueNonzeroOffAxis(t *testing.T) {
	b := &Body{}
	b.AddForce(lin.V3{X: 1}, lin.V3{Y: 1}, false)
	torque := b.externalTorque()
	if torque.Z == 0 {
		t.Fatalf("expected nonzero torque about Z, got %+v", torque)
	}
}

func TestWorldInvInertiaIdentityRotationIsUnchanged(t *testing.T) {
	b := &Body{world_rotation: lin.Q{W: 1}}
	b.inverse_inertia_tensor = *lin.NewM3()
	b.inverse_inertia_tensor.Xx, b.inverse_inertia_tensor.Yy, b.inverse_inertia_tensor.Zz = 1, 2, 3
	dyn := b.worldInvInertia()
	if dyn.Xx != 1 || dyn.Yy != 2 || dyn.Zz != 3 {
		t.Fatalf("expected tensor unchanged under identity rotation, got %+v", dyn)
	}
}
