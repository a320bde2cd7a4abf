package sim

// constraintEpsilon guards the distance division when two particles
// coincide; such a pair is skipped for the iteration.
const constraintEpsilon = 1e-9

// distanceConstraint pins the rest distance between two particles.
type distanceConstraint struct {
	a, b int
	rest float64
}

// restConstraints builds the six constraints of the body quadrilateral:
// four edges plus both diagonals. The diagonals stop shear into a
// parallelogram.
func restConstraints(cfg Config) [6]distanceConstraint {
	l := cfg.Wheelbase
	t := cfg.TrackWidth
	diag := hypot2(l, t)
	return [6]distanceConstraint{
		{WheelFL, WheelFR, t},
		{WheelRL, WheelRR, t},
		{WheelFL, WheelRL, l},
		{WheelFR, WheelRR, l},
		{WheelFL, WheelRR, diag},
		{WheelFR, WheelRL, diag},
	}
}

// solveConstraints runs the configured number of relaxation iterations,
// moving each particle pair by half the signed distance error along the
// connecting axis (equal-mass assumption).
func (w *World) solveConstraints() {
	for iter := 0; iter < w.cfg.ConstraintIterations; iter++ {
		for _, c := range w.rest {
			pa := &w.particles[c.a]
			pb := &w.particles[c.b]
			delta := pb.Pos.Sub(pa.Pos)
			dist := delta.Len()
			if dist < constraintEpsilon {
				continue
			}
			correction := delta.Mul((dist - c.rest) / dist * 0.5)
			pa.Pos = pa.Pos.Add(correction)
			pb.Pos = pb.Pos.Sub(correction)
		}
	}
}

// constraintError sums the absolute distance errors across all six
// constraints.
func (w *World) constraintError() float64 {
	total := 0.0
	for _, c := range w.rest {
		dist := w.particles[c.b].Pos.Sub(w.particles[c.a].Pos).Len()
		if dist > c.rest {
			total += dist - c.rest
		} else {
			total += c.rest - dist
		}
	}
	return total
}
