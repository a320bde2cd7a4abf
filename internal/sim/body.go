package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// bodyState is the derived body-level view of the four particles. It is a
// cache: deriveBody recomputes it twice per step, and reading it between
// the two calls yields the previous pass's values.
type bodyState struct {
	center          mgl64.Vec2
	heading         float64 // radians, (-pi, pi], 0 = +X
	velocity        mgl64.Vec2
	angularVelocity float64
	longAccel       float64
	latAccel        float64

	// One-step-lagged copies supporting the derivatives.
	prevHeading  float64
	prevVelocity mgl64.Vec2
}

// forward returns the body forward unit vector.
func (b *bodyState) forward() mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(b.heading), math.Sin(b.heading)}
}

// right returns the body right unit vector (forward rotated -90 degrees).
func (b *bodyState) right() mgl64.Vec2 {
	return mgl64.Vec2{math.Sin(b.heading), -math.Cos(b.heading)}
}

// deriveBody recomputes center, heading, velocities and body-frame
// accelerations from particle history. It must run before any consumer
// reads body-level quantities and again after integration/collision.
// Only the pre-force pass advances the lagged derivative sources: no
// particle moves between the end of one step and the start of the next,
// so advancing them on both passes would zero every in-step derivative.
func (w *World) deriveBody(updateLag bool) {
	dt := w.cfg.TimeStep
	b := &w.body

	frontMid := w.particles[WheelFL].Pos.Add(w.particles[WheelFR].Pos).Mul(0.5)
	rearMid := w.particles[WheelRL].Pos.Add(w.particles[WheelRR].Pos).Mul(0.5)
	b.center = frontMid.Add(rearMid).Mul(0.5)

	fw := frontMid.Sub(rearMid)
	b.heading = math.Atan2(fw[1], fw[0])

	var sum mgl64.Vec2
	for i := range w.particles {
		sum = sum.Add(w.particles[i].Pos.Sub(w.particles[i].PrevPos))
	}
	b.velocity = sum.Mul(1.0 / (4.0 * dt))

	b.angularVelocity = wrapPi(b.heading-b.prevHeading) / dt

	worldAccel := b.velocity.Sub(b.prevVelocity).Mul(1.0 / dt)
	b.longAccel = worldAccel.Dot(b.forward())
	b.latAccel = worldAccel.Dot(b.right())

	if updateLag {
		b.prevHeading = b.heading
		b.prevVelocity = b.velocity
	}
}

// wrapPi wraps an angle to (-pi, pi].
func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
