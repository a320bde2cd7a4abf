package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// pacejka is the simplified saturating force-vs-slip curve. slipNorm is
// normalized so 1.0 corresponds to the configured peak-grip slip value.
func pacejka(cfg Config, slipNorm float64) float64 {
	return math.Sin(cfg.PacejkaC * math.Atan(cfg.PacejkaB*slipNorm))
}

// driveForce derives the rear-axle drive force from engine torque through
// the drivetrain: peak torque scaled by the normalized curve at current
// RPM and throttle, multiplied by gear and final ratios, divided by wheel
// radius and scaled by clutch engagement. Reverse gear carries its sign in
// the negative ratio. A small creep force applies under near-zero throttle
// in a non-neutral gear at low speed with near-full engagement.
func (w *World) driveForce() float64 {
	cfg := w.cfg
	e := &w.engine
	if e.phase != engineRunning {
		return 0
	}
	ratio := cfg.GearRatios[e.gear] * cfg.FinalDrive
	if ratio == 0 {
		return 0
	}

	torque := cfg.PeakTorqueNm * cfg.torqueFraction(e.rpm) * w.input.Throttle
	force := torque * ratio / cfg.WheelRadius * e.engagement

	longSpeed := w.body.velocity.Dot(w.body.forward())
	if w.input.Throttle < 0.05 && math.Abs(longSpeed) < cfg.CreepMaxSpeed && e.engagement > 0.9 {
		force += sign(ratio) * cfg.CreepForce
	}
	return force
}

// wheelTireForce computes the lateral and longitudinal tire force for one
// wheel along its own forward/right axes. Rear wheels carry half the
// drive force each (rear-wheel-drive); front wheels steer but contribute
// no longitudinal force. The friction ellipse caps combined grip at the
// load limit, scaling both components proportionally.
func (w *World) wheelTireForce(i int, drive float64) (latForce, longForce float64, fw, right mgl64.Vec2) {
	cfg := w.cfg
	arm := w.particles[i].Pos.Sub(w.body.center)
	wheelVel := w.body.velocity.Add(perp(arm).Mul(w.body.angularVelocity))

	angle := w.body.heading
	if i == WheelFL || i == WheelFR {
		angle += w.steer.lockAngle
	}
	fw = mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
	right = mgl64.Vec2{math.Sin(angle), -math.Cos(angle)}

	longSpeed := wheelVel.Dot(fw)
	latSpeed := wheelVel.Dot(right)

	// Slip angle is undefined at rest.
	slipAngle := 0.0
	if wheelVel.Len() > cfg.MinSpeed {
		slipAngle = math.Atan2(latSpeed, math.Abs(longSpeed))
	}

	load := w.loads[i]
	limit := load * cfg.TireFriction
	latForce = -limit * pacejka(cfg, slipAngle/cfg.PeakSlipAngle)

	if i == WheelRL || i == WheelRR {
		perWheel := drive / 2.0
		commanded := perWheel / cfg.DriveSlipGain
		slipRatio := clamp(commanded/math.Max(math.Abs(longSpeed), cfg.MinSpeed), -1, 1)
		longForce = limit * pacejka(cfg, slipRatio/cfg.PeakSlipRatio)
	}

	combined := math.Hypot(latForce, longForce)
	if combined > limit && combined > 0 {
		scale := limit / combined
		latForce *= scale
		longForce *= scale
	}
	return latForce, longForce, fw, right
}

// applyTireForces accumulates the four wheels' forces into a net world
// force and a net torque about the body center.
func (w *World) applyTireForces(force *mgl64.Vec2, torque *float64) {
	drive := w.driveForce()
	for i := range w.particles {
		latForce, longForce, fw, right := w.wheelTireForce(i, drive)
		arm := w.particles[i].Pos.Sub(w.body.center)
		wheelForce := fw.Mul(longForce).Add(right.Mul(latForce))
		*force = force.Add(wheelForce)
		*torque += cross(arm, wheelForce)
	}
}
