package sim

import (
	"math"
	"testing"

	"apexdrive/internal/shared/types"
)

func TestBiteCurveZones(t *testing.T) {
	cfg := DefaultConfig()
	if got := biteCurve(cfg, 0.0); got != 0 {
		t.Fatalf("expected zero engagement at floor, got %f", got)
	}
	if got := biteCurve(cfg, cfg.ClutchBitePoint); got != 0 {
		t.Fatalf("expected zero engagement at bite point, got %f", got)
	}
	if got := biteCurve(cfg, cfg.ClutchBitePoint+cfg.ClutchBiteRange); got != 1 {
		t.Fatalf("expected full engagement at end of bite range, got %f", got)
	}
	if got := biteCurve(cfg, 1.0); got != 1 {
		t.Fatalf("expected full engagement at released pedal, got %f", got)
	}
	// Power ramp is convex: halfway through the range sits below linear.
	mid := biteCurve(cfg, cfg.ClutchBitePoint+cfg.ClutchBiteRange/2)
	if mid <= 0 || mid >= 0.5 {
		t.Fatalf("expected convex ramp at midpoint, got %f", mid)
	}
}

func TestParseGearRoundTrip(t *testing.T) {
	table := DefaultConfig().GearRatios
	for _, label := range []string{"R", "N", "1", "2", "3", "4", "5", "6"} {
		idx, ok := parseGear(label, table)
		if !ok {
			t.Fatalf("expected %q to parse", label)
		}
		if got := gearLabel(idx); got != label {
			t.Fatalf("round trip %q -> %d -> %q", label, idx, got)
		}
	}
	for _, label := range []string{"", "0", "7", "D", "-1", "1x", " 2", "2 "} {
		if _, ok := parseGear(label, table); ok {
			t.Fatalf("expected %q to be rejected", label)
		}
	}
}

func TestStallThresholdScalesWithGear(t *testing.T) {
	cfg := DefaultConfig()
	first := stallThreshold(cfg, gearFirst)
	if math.Abs(first-cfg.StallRPM) > 1e-9 {
		t.Fatalf("expected first-gear threshold to equal stall rpm, got %f", first)
	}
	sixth := stallThreshold(cfg, gearFirst+5)
	if sixth <= first {
		t.Fatalf("expected taller gear to stall more easily, first=%f sixth=%f", first, sixth)
	}
	if got := stallThreshold(cfg, gearNeutral); got != 0 {
		t.Fatalf("expected neutral to never stall, got threshold %f", got)
	}
}

func TestDumpClutchAtStandstillStalls(t *testing.T) {
	w := testWorld(t)
	w.ApplyInput(types.DriveInput{Gear: "1"})
	w.Step()

	snap := w.Snapshot()
	if !snap.Engine.Stalled {
		t.Fatal("expected engaging first gear at standstill with the clutch released to stall")
	}
	if snap.Engine.RPM != 0 {
		t.Fatalf("expected zero rpm while stalled, got %f", snap.Engine.RPM)
	}
	sawStall := false
	for _, ev := range snap.Events {
		if ev.Type == "stall" {
			sawStall = true
		}
	}
	if !sawStall {
		t.Fatal("expected a stall event")
	}
}

func TestStallRecoveryWithClutchAndThrottle(t *testing.T) {
	w := testWorld(t)
	w.ApplyInput(types.DriveInput{Gear: "1"})
	w.Step()
	if !w.Snapshot().Engine.Stalled {
		t.Fatal("expected initial stall")
	}

	// Push the clutch in and blip the throttle; the pedal needs time to
	// travel back below the bite range before the restart takes.
	w.ApplyInput(types.DriveInput{ClutchHeld: true, Throttle: 0.5})
	for i := 0; i < 80; i++ {
		w.Step()
	}
	snap := w.Snapshot()
	if snap.Engine.Stalled {
		t.Fatal("expected recovery from stall")
	}
	if !snap.Engine.Running {
		t.Fatal("expected engine running after recovery")
	}
	if snap.Engine.RPM < w.cfg.IdleRPM {
		t.Fatalf("expected rpm at or above idle after restart, got %f", snap.Engine.RPM)
	}
}

func setBodySpeed(w *World, speed float64) {
	fw := w.body.forward()
	for i := range w.particles {
		w.particles[i].PrevPos = w.particles[i].Pos.Sub(fw.Mul(speed * w.cfg.TimeStep))
	}
	w.deriveBody(true)
}

func TestDownshiftArmsRevMatch(t *testing.T) {
	w := testWorld(t)
	setBodySpeed(w, 25)
	w.engine.gear = gearFirst + 3 // 4th
	w.engine.rpm = 2500
	w.input.Gear = "2"

	w.applyGearRequest(25)
	e := &w.engine
	if e.gear != gearFirst+1 {
		t.Fatalf("expected gear index for 2nd, got %d", e.gear)
	}
	if e.prevGear != gearFirst+3 {
		t.Fatalf("expected previous gear recorded, got %d", e.prevGear)
	}
	if len(w.events) == 0 || w.events[len(w.events)-1].Detail != "4->2" {
		t.Fatalf("expected gear_change detail 4->2, got %+v", w.events)
	}
	if e.revMatchTimer <= 0 {
		t.Fatal("expected downshift to arm the rev-match timer")
	}
	if e.revMatchTarget <= 2500 {
		t.Fatalf("expected target above current rpm, got %f", e.revMatchTarget)
	}
	if e.revMatchTarget > w.cfg.RedlineRPM {
		t.Fatalf("expected target capped at redline, got %f", e.revMatchTarget)
	}
}

func TestRevMatchTargetCappedAtRedline(t *testing.T) {
	w := testWorld(t)
	setBodySpeed(w, 40)
	w.engine.gear = gearFirst + 3
	w.engine.rpm = 3000
	w.input.Gear = "2"

	w.applyGearRequest(40)
	if got := w.engine.revMatchTarget; got != w.cfg.RedlineRPM {
		t.Fatalf("expected target pinned at redline, got %f", got)
	}
}

func TestUpshiftDoesNotArmRevMatch(t *testing.T) {
	w := testWorld(t)
	setBodySpeed(w, 15)
	w.engine.gear = gearFirst + 1
	w.engine.rpm = 5000
	w.input.Gear = "3"

	w.applyGearRequest(15)
	if w.engine.revMatchTimer > 0 {
		t.Fatal("expected upshift to leave rev-match unarmed")
	}
}

func TestEngagedOverspeedHitsFuelCut(t *testing.T) {
	w := testWorld(t)
	setBodySpeed(w, 50)
	w.engine.gear = gearFirst
	w.engine.engagement = 1

	w.updateRunning(50)
	if w.engine.rpm != w.cfg.RedlineRPM {
		t.Fatalf("expected rpm held at redline, got %f", w.engine.rpm)
	}
	sawRedline := false
	for _, ev := range w.events {
		if ev.Type == "redline" {
			sawRedline = true
		}
	}
	if !sawRedline {
		t.Fatal("expected a redline event on the crossing")
	}

	// Pinned at redline, the event must not repeat.
	w.events = w.events[:0]
	w.updateRunning(50)
	for _, ev := range w.events {
		if ev.Type == "redline" {
			t.Fatal("expected redline event only on the crossing")
		}
	}
}

func TestFreeRevClampsToIdleAndRedline(t *testing.T) {
	w := testWorld(t)
	w.engine.engagement = 0
	w.engine.clutchPedal = 0

	w.input.Throttle = 1
	for i := 0; i < 400; i++ {
		w.updateRunning(0)
		if w.engine.rpm > w.cfg.RedlineRPM {
			t.Fatalf("free rev exceeded redline: %f", w.engine.rpm)
		}
	}
	if w.engine.rpm != w.cfg.RedlineRPM {
		t.Fatalf("expected full throttle free rev to reach redline, got %f", w.engine.rpm)
	}

	w.input.Throttle = 0
	for i := 0; i < 400; i++ {
		w.updateRunning(0)
		if w.engine.rpm < w.cfg.IdleRPM {
			t.Fatalf("free rev fell below idle: %f", w.engine.rpm)
		}
	}
	if w.engine.rpm != w.cfg.IdleRPM {
		t.Fatalf("expected closed throttle free rev to settle at idle, got %f", w.engine.rpm)
	}
}
