// Package systems contains the per-tick rules of the simulation.
package systems

import (
	"math"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// Integrate advances a body by one tick and returns the applied displacement.
//
// Displacement follows vel*t + g*t² with t the ticks since the last jump,
// capped at MaxDisplacement going down. Ascending moves get an extra
// AscendBias of lift. Tilt snaps nose-up while climbing or still near the
// jump height, and otherwise decays toward MinTilt.
func Integrate(b *components.Body, p *config.PhysicsConfig) float64 {
	b.Ticks++
	t := float64(b.Ticks)

	d := b.Vel*t + p.Gravity*t*t
	d = math.Min(d, p.MaxDisplacement)
	if d < 0 {
		d -= p.AscendBias
	}
	b.Y += d

	if d < 0 || b.Y < b.Height+p.DiveHeadroom {
		b.Tilt = math.Max(b.Tilt, p.MaxRotation)
	} else if b.Tilt > p.MinTilt {
		b.Tilt = math.Max(b.Tilt-p.RotationVelocity, p.MinTilt)
	}

	return d
}

// Jump applies the upward impulse and restarts the fall clock.
func Jump(b *components.Body, p *config.PhysicsConfig) {
	b.Vel = p.JumpImpulse
	b.Ticks = 0
	b.Height = b.Y
}
