package sim

import (
	"fmt"
	"math"
	"strconv"

	"apexdrive/internal/shared/types"
)

// enginePhase is the top-level drivetrain state. The three running
// clutch regimes (disengaged, slipping, engaged) are selected each step
// from the derived engagement factor and are not persistent states.
type enginePhase int

const (
	engineOff enginePhase = iota
	engineStalled
	engineRunning
)

// Gear table indices. GearRatios is laid out R, N, 1..n.
const (
	gearReverse = 0
	gearNeutral = 1
	gearFirst   = 2
)

// Engagement boundaries between the three running regimes.
const (
	engageDisengaged = 0.01
	engageFull       = 0.99
)

// engineState is mutated every step by exactly one writer, updateEngine.
type engineState struct {
	phase       enginePhase
	rpm         float64
	gear        int
	prevGear    int
	clutchPedal float64 // 0 = floor (disengaged), 1 = released
	engagement  float64 // derived from pedal via the bite curve

	revMatchTimer  float64
	revMatchTarget float64
}

// parseGear maps a wire gear symbol to a ratio-table index.
func parseGear(label string, table []float64) (int, bool) {
	switch label {
	case types.GearReverse:
		return gearReverse, true
	case types.GearNeutral:
		return gearNeutral, true
	}
	n, err := strconv.Atoi(label)
	if err != nil || n < 1 {
		return 0, false
	}
	idx := gearFirst + n - 1
	if idx >= len(table) {
		return 0, false
	}
	return idx, true
}

// gearLabel is the inverse of parseGear.
func gearLabel(idx int) string {
	switch idx {
	case gearReverse:
		return types.GearReverse
	case gearNeutral:
		return types.GearNeutral
	default:
		return fmt.Sprintf("%d", idx-gearFirst+1)
	}
}

// biteCurve maps clutch pedal position to the engagement factor: zero
// before the bite point, a convex power ramp across the bite range, one
// beyond it. The narrow ramp is what produces the bite feel.
func biteCurve(cfg Config, pedal float64) float64 {
	if pedal <= cfg.ClutchBitePoint {
		return 0
	}
	end := cfg.ClutchBitePoint + cfg.ClutchBiteRange
	if pedal >= end {
		return 1
	}
	t := (pedal - cfg.ClutchBitePoint) / cfg.ClutchBiteRange
	return math.Pow(t, cfg.ClutchCurveExp)
}

// wheelRPM is the engine speed demanded by the wheels through the given
// gear at the given longitudinal body speed. Negative when rolling against
// the gear's direction.
func wheelRPM(cfg Config, longSpeed float64, gear int) float64 {
	ratio := cfg.GearRatios[gear] * cfg.FinalDrive
	wheelRate := longSpeed / cfg.WheelRadius // rad/s
	return wheelRate * ratio * 60.0 / (2.0 * math.Pi)
}

// stallThreshold is the effective RPM floor below which the engine stalls,
// scaled by the stall-resistance tunable and by gear mechanical advantage:
// taller gears (smaller ratio magnitude) stall more easily.
func stallThreshold(cfg Config, gear int) float64 {
	ratio := math.Abs(cfg.GearRatios[gear])
	if ratio == 0 {
		return 0
	}
	advantage := ratio / math.Abs(cfg.GearRatios[gearFirst])
	return cfg.StallRPM / (cfg.StallResistance * advantage)
}

// updateEngine advances the clutch pedal, resolves gear changes, and runs
// the phase state machine for one fixed step.
func (w *World) updateEngine() {
	cfg := w.cfg
	e := &w.engine
	dt := cfg.TimeStep
	longSpeed := w.body.velocity.Dot(w.body.forward())

	// Clutch pedal moves toward its target at the engagement-time rate;
	// engagement is always derived, never set directly.
	target := 1.0
	if w.input.ClutchHeld {
		target = 0.0
	}
	step := dt / cfg.ClutchEngageTime
	e.clutchPedal = clamp(e.clutchPedal+clamp(target-e.clutchPedal, -step, step), 0, 1)
	e.engagement = biteCurve(cfg, e.clutchPedal)

	w.applyGearRequest(longSpeed)

	switch e.phase {
	case engineOff:
		e.rpm = 0
	case engineStalled:
		e.rpm = 0
		// Recovery: throttle blip with the clutch pedal partially
		// released, short of full engagement.
		if w.input.Throttle > 0.1 && e.clutchPedal > 0.05 && e.engagement < engageFull {
			e.phase = engineRunning
			e.rpm = cfg.IdleRPM
			w.pushEvent("engine_start", "stall recovery")
		}
	case engineRunning:
		w.updateRunning(longSpeed)
	}
}

// applyGearRequest resolves a pending gear-change command and arms the
// rev-match blip on downshifts that would spin the engine up.
func (w *World) applyGearRequest(longSpeed float64) {
	cfg := w.cfg
	e := &w.engine
	if w.input.Gear == "" {
		return
	}
	next, ok := parseGear(w.input.Gear, cfg.GearRatios)
	if !ok || next == e.gear {
		return
	}
	oldRatio := math.Abs(cfg.GearRatios[e.gear])
	newRatio := math.Abs(cfg.GearRatios[next])
	e.prevGear = e.gear
	e.gear = next
	w.pushEvent("gear_change", gearLabel(e.prevGear)+"->"+gearLabel(next))

	if e.phase != engineRunning || newRatio <= oldRatio || newRatio == 0 {
		return
	}
	demanded := wheelRPM(cfg, longSpeed, next)
	if demanded > e.rpm {
		e.revMatchTimer = cfg.RevMatchTime
		e.revMatchTarget = math.Min(demanded, cfg.RedlineRPM)
	}
}

// updateRunning selects the clutch regime for this step and computes RPM.
func (w *World) updateRunning(longSpeed float64) {
	cfg := w.cfg
	e := &w.engine
	dt := cfg.TimeStep

	// Free-rev target: idle plus throttle, asymmetric rise and fall.
	freeTarget := cfg.IdleRPM + w.input.Throttle*(cfg.RedlineRPM-cfg.IdleRPM)
	freeRev := e.rpm
	if freeRev < freeTarget {
		freeRev = math.Min(freeRev+cfg.RPMRiseRate*dt, freeTarget)
	} else {
		freeRev = math.Max(freeRev-cfg.RPMFallRate*dt, freeTarget)
	}
	freeRev = clamp(freeRev, cfg.IdleRPM, cfg.RedlineRPM)

	ratio := cfg.GearRatios[e.gear]
	demanded := wheelRPM(cfg, longSpeed, e.gear)
	nearStationary := math.Abs(longSpeed) < cfg.MinSpeed
	prevRPM := e.rpm

	switch {
	case e.engagement < engageDisengaged || ratio == 0:
		// Disengaged or neutral: the engine free-revs.
		e.rpm = freeRev

	case e.engagement > engageFull:
		// Engaged: rigid mechanical coupling, not a blend. Floored at
		// idle while running; the stall check reads the raw demand.
		e.rpm = clamp(demanded, cfg.IdleRPM, cfg.RedlineRPM)
		if demanded >= cfg.RedlineRPM && prevRPM < cfg.RedlineRPM {
			w.pushEvent("redline", "") // fuel cut
		}
		if demanded < stallThreshold(cfg, e.gear) && nearStationary {
			w.stall()
			return
		}

	default:
		// Slipping: convex blend weighted by engagement. The only
		// regime in which clutch slip is physically meaningful.
		e.rpm = clamp(e.engagement*demanded+(1-e.engagement)*freeRev, 0, cfg.RedlineRPM)
		if e.rpm >= cfg.RedlineRPM && prevRPM < cfg.RedlineRPM {
			w.pushEvent("redline", "")
		}
		if e.engagement > 0.8 && demanded < stallThreshold(cfg, e.gear)*e.engagement && nearStationary && w.input.Throttle < 0.1 {
			w.stall()
			return
		}
	}

	// Rev-match blip: blend RPM toward the armed target while the clutch
	// is not rigidly coupled.
	if e.revMatchTimer > 0 {
		if e.engagement <= engageFull {
			frac := dt / math.Max(e.revMatchTimer, dt)
			e.rpm += (e.revMatchTarget - e.rpm) * frac
		}
		e.revMatchTimer -= dt
	}
}

func (w *World) stall() {
	w.engine.phase = engineStalled
	w.engine.rpm = 0
	w.pushEvent("stall", gearLabel(w.engine.gear))
}
