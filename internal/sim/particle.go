package sim

import "github.com/go-gl/mathgl/mgl64"

// Wheel indices into the particle, load and force arrays.
const (
	WheelFL = 0
	WheelFR = 1
	WheelRL = 2
	WheelRR = 3
)

// Particle is one corner of the body quadrilateral. Velocity is never
// stored; it is always (Pos - PrevPos) / dt.
type Particle struct {
	Pos     mgl64.Vec2
	PrevPos mgl64.Vec2
}

// perp returns v rotated 90 degrees counter-clockwise.
func perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// cross is the 2D cross product a.x*b.y - a.y*b.x.
func cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// integrate advances all four particles by one Verlet step. The angular
// acceleration is applied as a per-particle linear perturbation about the
// body center; the constraint pass afterwards corrects any shape drift.
func (w *World) integrate(linAccel mgl64.Vec2, angAccel float64) {
	dt2 := w.cfg.TimeStep * w.cfg.TimeStep
	for i := range w.particles {
		p := &w.particles[i]
		arm := p.Pos.Sub(w.body.center)
		accel := linAccel.Add(perp(arm).Mul(angAccel))
		next := p.Pos.Add(p.Pos.Sub(p.PrevPos)).Add(accel.Mul(dt2))
		p.PrevPos = p.Pos
		p.Pos = next
	}
}

// clampDisplacement caps the implied per-step velocity of each particle by
// rewriting its previous position, without discarding applied acceleration.
func (w *World) clampDisplacement() {
	limit := w.cfg.MaxStepDisplacement
	for i := range w.particles {
		p := &w.particles[i]
		d := p.Pos.Sub(p.PrevPos)
		if dist := d.Len(); dist > limit {
			p.PrevPos = p.Pos.Sub(d.Mul(limit / dist))
		}
	}
}
