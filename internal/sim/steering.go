package sim

import "math"

// steerState holds the visually-driven wheel angle (large arcade range)
// and the derived physical front-wheel lock angle used by the tire model.
type steerState struct {
	wheelAngle float64 // unbounded drag angle, self-centering
	lockAngle  float64 // compressed physical angle, bounded
}

// updateSteering follows active steering input directly and self-centers
// toward zero otherwise, then compresses the visual angle into the
// physical lock range.
func (w *World) updateSteering() {
	cfg := w.cfg
	s := &w.steer
	if w.input.SteerActive {
		s.wheelAngle = w.input.SteerAngle
	} else {
		decay := cfg.SteerCenterRate * cfg.TimeStep
		if math.Abs(s.wheelAngle) <= decay {
			s.wheelAngle = 0
		} else {
			s.wheelAngle -= sign(s.wheelAngle) * decay
		}
	}
	s.lockAngle = clamp(s.wheelAngle*cfg.SteerRatio, -cfg.SteerLockMax, cfg.SteerLockMax)
}

// resolveBounds reflects each particle off the axis-aligned world walls.
// Position is clamped to the wall and the previous position is rewritten
// so the implied velocity reverses scaled by the restitution coefficient.
func (w *World) resolveBounds() {
	cfg := w.cfg
	r := cfg.Restitution
	for i := range w.particles {
		p := &w.particles[i]
		impact := 0.0
		for axis := 0; axis < 2; axis++ {
			limit := cfg.ArenaWidth
			if axis == 1 {
				limit = cfg.ArenaHeight
			}
			v := p.Pos[axis] - p.PrevPos[axis]
			if p.Pos[axis] < 0 {
				p.Pos[axis] = 0
				p.PrevPos[axis] = p.Pos[axis] + v*r
				impact = math.Max(impact, math.Abs(v)/cfg.TimeStep)
			} else if p.Pos[axis] > limit {
				p.Pos[axis] = limit
				p.PrevPos[axis] = p.Pos[axis] + v*r
				impact = math.Max(impact, math.Abs(v)/cfg.TimeStep)
			}
		}
		// Resting contact is not worth reporting.
		if impact > cfg.MinSpeed {
			w.pushEvent("wall_contact", "")
		}
	}
}
