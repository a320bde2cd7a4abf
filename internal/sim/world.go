// Package sim implements a deterministic fixed-timestep rigid-body
// vehicle dynamics kernel: a four-particle Verlet body held rigid by
// iterative distance constraints, a slip-based tire force model with
// weight transfer, and a torque-driven engine/clutch/gearbox state
// machine. The World has exactly one writer (Step); external readers
// take Snapshot copies between steps.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"apexdrive/internal/shared/types"
)

// World is the authoritative simulation state.
type World struct {
	mu        sync.Mutex
	cfg       Config
	sessionID string
	createdAt time.Time
	tick      uint64
	simTime   float64

	particles [4]Particle
	rest      [6]distanceConstraint
	body      bodyState
	engine    engineState
	steer     steerState
	loads     [4]float64
	input     types.DriveInput
	events    []types.SimEvent
}

// NewWorld creates a world with the car at rest in the arena center,
// engine running at idle in neutral with the clutch released. The config
// must have passed Validate.
func NewWorld(sessionID string, cfg Config) *World {
	w := &World{
		cfg:       cfg,
		sessionID: sessionID,
		createdAt: time.Now().UTC(),
		rest:      restConstraints(cfg),
		engine: engineState{
			phase:       engineRunning,
			rpm:         cfg.IdleRPM,
			gear:        gearNeutral,
			prevGear:    gearNeutral,
			clutchPedal: 1,
			engagement:  1,
		},
	}
	w.placeBody(mgl64.Vec2{cfg.ArenaWidth / 2, cfg.ArenaHeight / 2}, math.Pi/2)
	w.deriveBody(true)
	return w
}

// placeBody sets all four particles to the rest quadrilateral around the
// given center and heading, at zero implied velocity.
func (w *World) placeBody(center mgl64.Vec2, heading float64) {
	fw := mgl64.Vec2{math.Cos(heading), math.Sin(heading)}
	right := mgl64.Vec2{math.Sin(heading), -math.Cos(heading)}
	halfL := fw.Mul(w.cfg.Wheelbase / 2)
	halfT := right.Mul(w.cfg.TrackWidth / 2)

	w.particles[WheelFL].Pos = center.Add(halfL).Sub(halfT)
	w.particles[WheelFR].Pos = center.Add(halfL).Add(halfT)
	w.particles[WheelRL].Pos = center.Sub(halfL).Sub(halfT)
	w.particles[WheelRR].Pos = center.Sub(halfL).Add(halfT)
	for i := range w.particles {
		w.particles[i].PrevPos = w.particles[i].Pos
	}
	w.body.prevHeading = heading
	w.body.prevVelocity = mgl64.Vec2{}
}

// ApplyInput stores the latest driver input for subsequent steps.
func (w *World) ApplyInput(in types.DriveInput) {
	w.mu.Lock()
	defer w.mu.Unlock()
	in.Throttle = clamp(in.Throttle, 0, 1)
	w.input = in
}

// SetConfig replaces the tunable set between steps.
func (w *World) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg = cfg
	w.rest = restConstraints(cfg)
	return nil
}

// Config returns the current tunable set.
func (w *World) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Step advances the simulation by exactly one fixed timestep. Mutation
// order is strict: steering, engine, derive, loads, forces, integrate,
// constraints, displacement clamp, bounds, constraints, derive.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step()
}

func (w *World) step() {
	w.tick++
	w.simTime += w.cfg.TimeStep

	w.updateSteering()
	w.updateEngine()
	w.deriveBody(true)
	w.computeLoads()

	var force mgl64.Vec2
	var torque float64
	w.applyTireForces(&force, &torque)
	w.applyDrag(&force)
	w.applyBrake(&force)

	linAccel := force.Mul(1.0 / w.cfg.MassKg)
	angAccel := torque / w.cfg.YawInertia

	w.integrate(linAccel, angAccel)
	w.solveConstraints()
	w.clampDisplacement()
	w.resolveBounds()
	w.solveConstraints()
	w.deriveBody(false)

	// Gear requests are edge-triggered; consume after one step.
	w.input.Gear = ""
}

// Snapshot returns a read-only copy of the replicated state and drains
// the pending event buffer. Exactly one consumer (the replication loop)
// should use it; passive readers use View.
func (w *World) Snapshot() types.SimState {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := w.stateLocked()
	w.events = w.events[:0]
	return state
}

// View returns the same copy as Snapshot without consuming pending
// events.
func (w *World) View() types.SimState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *World) stateLocked() types.SimState {
	events := make([]types.SimEvent, len(w.events))
	copy(events, w.events)

	var corners [4]types.Vec2
	for i := range w.particles {
		corners[i] = types.Vec2{X: w.particles[i].Pos[0], Y: w.particles[i].Pos[1]}
	}

	return types.SimState{
		SessionID: w.sessionID,
		Tick:      w.tick,
		SimTime:   w.simTime,
		CreatedAt: w.createdAt,
		Car: types.CarSnapshot{
			Center:          types.Vec2{X: w.body.center[0], Y: w.body.center[1]},
			Heading:         w.body.heading,
			Velocity:        types.Vec2{X: w.body.velocity[0], Y: w.body.velocity[1]},
			SpeedMS:         w.body.velocity.Len(),
			AngularVelocity: w.body.angularVelocity,
			LongAccel:       w.body.longAccel,
			LatAccel:        w.body.latAccel,
			WheelLoads:      w.loads,
			WheelAngle:      w.steer.lockAngle,
			Corners:         corners,
		},
		Engine: types.EngineSnapshot{
			RPM:              w.engine.rpm,
			Gear:             gearLabel(w.engine.gear),
			ClutchPedal:      w.engine.clutchPedal,
			ClutchEngagement: w.engine.engagement,
			Stalled:          w.engine.phase == engineStalled,
			Running:          w.engine.phase == engineRunning,
			RevMatching:      w.engine.revMatchTimer > 0,
		},
		Events: events,
	}
}

func (w *World) pushEvent(typ, detail string) {
	// Bound the buffer in case no reader is draining.
	if len(w.events) >= 64 {
		w.events = w.events[1:]
	}
	w.events = append(w.events, types.SimEvent{
		Type:       typ,
		Detail:     detail,
		OccurredMS: time.Now().UTC().UnixMilli(),
	})
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	if v > 0 {
		return 1
	}
	return 0
}

func hypot2(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}
