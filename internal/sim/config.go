package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// CurvePoint is one breakpoint of the normalized engine torque curve.
type CurvePoint struct {
	RPM    float64 `json:"rpm"`
	Torque float64 `json:"torque"` // fraction of peak, 0..1
}

// Config carries every tunable the kernel reads. It is immutable during a
// step; services replace it wholesale between steps via World.SetConfig.
type Config struct {
	TimeStep float64 `json:"time_step"` // seconds per fixed step

	// Body
	MassKg     float64 `json:"mass_kg"`
	Gravity    float64 `json:"gravity"`
	CoGHeight  float64 `json:"cog_height"`
	Wheelbase  float64 `json:"wheelbase"`
	TrackWidth float64 `json:"track_width"`
	YawInertia float64 `json:"yaw_inertia"`

	// Tires
	TireFriction  float64 `json:"tire_friction"`
	PacejkaB      float64 `json:"pacejka_b"`
	PacejkaC      float64 `json:"pacejka_c"`
	PeakSlipAngle float64 `json:"peak_slip_angle"` // radians at peak lateral grip
	PeakSlipRatio float64 `json:"peak_slip_ratio"`
	DriveSlipGain float64 `json:"drive_slip_gain"` // N of drive force per m/s of commanded overspeed

	// Drivetrain. GearRatios is indexed R, N, 1..6; reverse is negative.
	GearRatios   []float64    `json:"gear_ratios"`
	FinalDrive   float64      `json:"final_drive"`
	WheelRadius  float64      `json:"wheel_radius"`
	PeakTorqueNm float64      `json:"peak_torque_nm"`
	TorqueCurve  []CurvePoint `json:"torque_curve"`

	// Engine
	IdleRPM         float64 `json:"idle_rpm"`
	RedlineRPM      float64 `json:"redline_rpm"`
	StallRPM        float64 `json:"stall_rpm"`
	StallResistance float64 `json:"stall_resistance"` // >1 makes stalling harder
	RPMRiseRate     float64 `json:"rpm_rise_rate"`    // free-rev rpm/s up
	RPMFallRate     float64 `json:"rpm_fall_rate"`    // free-rev rpm/s down
	RevMatchTime    float64 `json:"rev_match_time"`

	// Clutch
	ClutchBitePoint  float64 `json:"clutch_bite_point"` // pedal position where bite begins
	ClutchBiteRange  float64 `json:"clutch_bite_range"`
	ClutchCurveExp   float64 `json:"clutch_curve_exp"`
	ClutchEngageTime float64 `json:"clutch_engage_time"` // seconds for full pedal travel

	// Creep
	CreepForce    float64 `json:"creep_force"`
	CreepMaxSpeed float64 `json:"creep_max_speed"`

	// Resistance and brakes
	RollingResistCoeff float64 `json:"rolling_resist_coeff"`
	AeroDragCoeff      float64 `json:"aero_drag_coeff"`
	BrakeForce         float64 `json:"brake_force"`
	MinSpeed           float64 `json:"min_speed"` // below this, slip and drag direction are suppressed

	// Steering
	SteerRatio      float64 `json:"steer_ratio"` // visual angle to physical lock compression
	SteerLockMax    float64 `json:"steer_lock_max"`
	SteerCenterRate float64 `json:"steer_center_rate"` // rad/s self-centering

	// Solver and bounds
	ConstraintIterations int     `json:"constraint_iterations"`
	ArenaWidth           float64 `json:"arena_width"`
	ArenaHeight          float64 `json:"arena_height"`
	Restitution          float64 `json:"restitution"`
	MaxStepDisplacement  float64 `json:"max_step_displacement"`
}

// DefaultConfig returns the tuned reference car, a GT86-class coupe.
func DefaultConfig() Config {
	return Config{
		TimeStep: 1.0 / 120.0,

		MassKg:     1200,
		Gravity:    9.81,
		CoGHeight:  0.457,
		Wheelbase:  2.57,
		TrackWidth: 1.60,
		YawInertia: 1900,

		TireFriction:  1.0,
		PacejkaB:      1.1,
		PacejkaC:      1.9,
		PeakSlipAngle: 0.14,
		PeakSlipRatio: 0.09,
		DriveSlipGain: 10000,

		GearRatios:   []float64{-3.437, 0, 3.626, 2.188, 1.541, 1.213, 1.0, 0.767},
		FinalDrive:   4.1,
		WheelRadius:  0.33,
		PeakTorqueNm: 205,
		TorqueCurve: []CurvePoint{
			{RPM: 0, Torque: 0},
			{RPM: 800, Torque: 0.49},
			{RPM: 1000, Torque: 0.68},
			{RPM: 3000, Torque: 1.0},
			{RPM: 6000, Torque: 1.0},
			{RPM: 7000, Torque: 0.88},
		},

		IdleRPM:         800,
		RedlineRPM:      7200,
		StallRPM:        600,
		StallResistance: 1.0,
		RPMRiseRate:     4800,
		RPMFallRate:     3200,
		RevMatchTime:    0.25,

		ClutchBitePoint:  0.35,
		ClutchBiteRange:  0.25,
		ClutchCurveExp:   2.0,
		ClutchEngageTime: 0.9,

		CreepForce:    600,
		CreepMaxSpeed: 1.5,

		RollingResistCoeff: 0.015,
		AeroDragCoeff:      0.42,
		BrakeForce:         9000,
		MinSpeed:           0.4,

		SteerRatio:      0.12,
		SteerLockMax:    0.55,
		SteerCenterRate: 3.0,

		ConstraintIterations: 6,
		ArenaWidth:           200,
		ArenaHeight:          120,
		Restitution:          0.35,
		MaxStepDisplacement:  2.0,
	}
}

// Load merges a JSON config file over the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects parameter values the kernel does not guard against.
// Services must call it before constructing a World.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"time_step", c.TimeStep},
		{"mass_kg", c.MassKg},
		{"gravity", c.Gravity},
		{"cog_height", c.CoGHeight},
		{"wheelbase", c.Wheelbase},
		{"track_width", c.TrackWidth},
		{"yaw_inertia", c.YawInertia},
		{"tire_friction", c.TireFriction},
		{"peak_slip_angle", c.PeakSlipAngle},
		{"peak_slip_ratio", c.PeakSlipRatio},
		{"drive_slip_gain", c.DriveSlipGain},
		{"final_drive", c.FinalDrive},
		{"wheel_radius", c.WheelRadius},
		{"stall_resistance", c.StallResistance},
		{"clutch_bite_range", c.ClutchBiteRange},
		{"clutch_engage_time", c.ClutchEngageTime},
		{"arena_width", c.ArenaWidth},
		{"arena_height", c.ArenaHeight},
		{"max_step_displacement", c.MaxStepDisplacement},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %g", p.name, p.value)
		}
	}
	if c.ConstraintIterations < 1 {
		return fmt.Errorf("config: constraint_iterations must be >= 1, got %d", c.ConstraintIterations)
	}
	if c.RedlineRPM <= c.IdleRPM {
		return fmt.Errorf("config: redline_rpm %g must exceed idle_rpm %g", c.RedlineRPM, c.IdleRPM)
	}
	if len(c.GearRatios) < 3 {
		return fmt.Errorf("config: gear_ratios needs reverse, neutral and one forward gear")
	}
	if c.GearRatios[gearNeutral] != 0 {
		return fmt.Errorf("config: neutral ratio must be zero, got %g", c.GearRatios[gearNeutral])
	}
	if c.GearRatios[gearReverse] >= 0 {
		return fmt.Errorf("config: reverse ratio must be negative, got %g", c.GearRatios[gearReverse])
	}
	if len(c.TorqueCurve) < 2 {
		return fmt.Errorf("config: torque_curve needs at least two breakpoints")
	}
	for i := 1; i < len(c.TorqueCurve); i++ {
		if c.TorqueCurve[i].RPM <= c.TorqueCurve[i-1].RPM {
			return fmt.Errorf("config: torque_curve rpm breakpoints must ascend")
		}
	}
	if c.Restitution < 0 || c.Restitution > 1 {
		return fmt.Errorf("config: restitution must be in [0,1], got %g", c.Restitution)
	}
	return nil
}

// torqueFraction interpolates the normalized torque curve at rpm.
func (c Config) torqueFraction(rpm float64) float64 {
	curve := c.TorqueCurve
	if rpm <= curve[0].RPM {
		return curve[0].Torque
	}
	for i := 0; i < len(curve)-1; i++ {
		lo, hi := curve[i], curve[i+1]
		if rpm >= lo.RPM && rpm <= hi.RPM {
			t := (rpm - lo.RPM) / (hi.RPM - lo.RPM)
			return lo.Torque + (hi.Torque-lo.Torque)*t
		}
	}
	return curve[len(curve)-1].Torque
}
