package sim

import "github.com/go-gl/mathgl/mgl64"

// applyDrag accumulates rolling resistance and quadratic aerodynamic drag
// opposing the velocity direction. Both vanish below the minimum speed to
// avoid normalizing a near-zero vector.
func (w *World) applyDrag(force *mgl64.Vec2) {
	cfg := w.cfg
	speed := w.body.velocity.Len()
	if speed < cfg.MinSpeed {
		return
	}
	dir := w.body.velocity.Mul(1.0 / speed)
	rolling := cfg.RollingResistCoeff * cfg.MassKg * cfg.Gravity
	aero := cfg.AeroDragCoeff * speed * speed
	*force = force.Sub(dir.Mul(rolling + aero))
}

// applyBrake accumulates a fixed-magnitude deceleration force opposing the
// velocity while the brake input is active. Deliberately independent of
// wheel load.
func (w *World) applyBrake(force *mgl64.Vec2) {
	cfg := w.cfg
	if !w.input.Brake {
		return
	}
	speed := w.body.velocity.Len()
	if speed < cfg.MinSpeed {
		return
	}
	dir := w.body.velocity.Mul(1.0 / speed)
	*force = force.Sub(dir.Mul(cfg.BrakeForce))
}
