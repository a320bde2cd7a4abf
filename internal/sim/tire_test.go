package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPacejkaPeaksAtNormalizedSlip(t *testing.T) {
	cfg := DefaultConfig()
	atPeak := pacejka(cfg, 1.0)
	if math.Abs(atPeak-1.0) > 0.02 {
		t.Fatalf("expected curve near 1.0 at normalized slip 1.0, got %f", atPeak)
	}
	if pacejka(cfg, 0.5) >= atPeak {
		t.Fatal("expected sub-peak slip to produce less force than peak")
	}
	if pacejka(cfg, -1.0) > -0.9 {
		t.Fatalf("expected odd symmetry, got %f at -1.0", pacejka(cfg, -1.0))
	}
}

func TestFrictionEllipseBoundsCombinedForce(t *testing.T) {
	w := testWorld(t)
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		w.body.velocity = mgl64.Vec2{
			(rng.Float64() - 0.5) * 60,
			(rng.Float64() - 0.5) * 60,
		}
		w.body.angularVelocity = (rng.Float64() - 0.5) * 6
		w.body.heading = rng.Float64() * 2 * math.Pi
		w.steer.lockAngle = (rng.Float64() - 0.5) * 2 * w.cfg.SteerLockMax
		for i := range w.loads {
			w.loads[i] = rng.Float64() * 8000
		}
		drive := (rng.Float64() - 0.5) * 30000

		for i := range w.particles {
			latForce, longForce, _, _ := w.wheelTireForce(i, drive)
			limit := w.loads[i] * w.cfg.TireFriction
			if combined := math.Hypot(latForce, longForce); combined > limit+1e-9 {
				t.Fatalf("trial %d wheel %d: combined force %f exceeds load limit %f",
					trial, i, combined, limit)
			}
		}
	}
}

func TestUnloadedWheelProducesNoForce(t *testing.T) {
	w := testWorld(t)
	w.body.velocity = mgl64.Vec2{10, 5}
	w.loads[WheelRR] = 0

	latForce, longForce, _, _ := w.wheelTireForce(WheelRR, 8000)
	if latForce != 0 || longForce != 0 {
		t.Fatalf("expected zero force at zero load, got lat=%f long=%f", latForce, longForce)
	}
}

func TestCreepForceFollowsGearDirection(t *testing.T) {
	w := testWorld(t)
	w.engine.gear = gearFirst
	w.engine.engagement = 1
	w.input.Throttle = 0

	if f := w.driveForce(); f <= 0 {
		t.Fatalf("expected positive creep in first gear, got %f", f)
	}

	w.engine.gear = gearReverse
	if f := w.driveForce(); f >= 0 {
		t.Fatalf("expected negative creep in reverse, got %f", f)
	}
}

func TestNoDriveForceWhenStalledOrNeutral(t *testing.T) {
	w := testWorld(t)
	w.engine.gear = gearFirst
	w.engine.engagement = 1
	w.engine.rpm = 3000
	w.input.Throttle = 1

	w.engine.phase = engineStalled
	if f := w.driveForce(); f != 0 {
		t.Fatalf("expected no drive force while stalled, got %f", f)
	}

	w.engine.phase = engineRunning
	w.engine.gear = gearNeutral
	if f := w.driveForce(); f != 0 {
		t.Fatalf("expected no drive force in neutral, got %f", f)
	}
}

func TestDriveForceScalesWithEngagement(t *testing.T) {
	w := testWorld(t)
	w.engine.gear = gearFirst
	w.engine.rpm = 3000
	w.input.Throttle = 1

	w.engine.engagement = 1
	full := w.driveForce()
	w.engine.engagement = 0.5
	half := w.driveForce()
	if full <= 0 {
		t.Fatalf("expected positive drive force at full throttle, got %f", full)
	}
	if math.Abs(half-full/2) > 1e-9 {
		t.Fatalf("expected drive force proportional to engagement, full=%f half=%f", full, half)
	}
}
