package types

import "time"

// Vec2 represents a position or vector in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Gear symbols accepted on the wire.
const (
	GearReverse = "R"
	GearNeutral = "N"
)

// DriveInput is the per-tick driver control input.
type DriveInput struct {
	Sequence    uint64  `json:"sequence"`
	Throttle    float64 `json:"throttle"` // 0..1
	Brake       bool    `json:"brake"`
	ClutchHeld  bool    `json:"clutch_held"` // true = pedal to the floor
	SteerActive bool    `json:"steer_active"`
	SteerAngle  float64 `json:"steer_angle"` // radians, unbounded drag angle
	Gear        string  `json:"gear,omitempty"` // R|N|1..6, empty = keep current
	ClientMS    int64   `json:"client_ms"`
}

// CarSnapshot is the replicated body-level state of the vehicle.
type CarSnapshot struct {
	Center          Vec2       `json:"center"`
	Heading         float64    `json:"heading"` // radians, (-pi, pi]
	Velocity        Vec2       `json:"velocity"`
	SpeedMS         float64    `json:"speed_ms"`
	AngularVelocity float64    `json:"angular_velocity"`
	LongAccel       float64    `json:"long_accel"`
	LatAccel        float64    `json:"lat_accel"`
	WheelLoads      [4]float64 `json:"wheel_loads"` // FL, FR, RL, RR, newtons
	WheelAngle      float64    `json:"wheel_angle"` // physical front lock angle
	Corners         [4]Vec2    `json:"corners"`     // FL, FR, RL, RR particle positions
}

// EngineSnapshot is the replicated drivetrain state.
type EngineSnapshot struct {
	RPM              float64 `json:"rpm"`
	Gear             string  `json:"gear"`
	ClutchPedal      float64 `json:"clutch_pedal"`      // 0 floor .. 1 released
	ClutchEngagement float64 `json:"clutch_engagement"` // 0..1 derived
	Stalled          bool    `json:"stalled"`
	Running          bool    `json:"running"`
	RevMatching      bool    `json:"rev_matching"`
}

// SimEvent tracks state changes worth UI/audio/telemetry feedback.
type SimEvent struct {
	Type       string `json:"type"` // engine_start|stall|gear_change|redline|wall_contact
	Detail     string `json:"detail,omitempty"`
	OccurredMS int64  `json:"occurred_ms"`
}

// SimState is replicated to all clients.
type SimState struct {
	SessionID string         `json:"session_id"`
	Tick      uint64         `json:"tick"`
	SimTime   float64        `json:"sim_time"` // seconds since start
	CreatedAt time.Time      `json:"created_at"`
	Car       CarSnapshot    `json:"car"`
	Engine    EngineSnapshot `json:"engine"`
	Events    []SimEvent     `json:"events"`
}

// ClientEnvelope is sent from client to server.
type ClientEnvelope struct {
	Type  string      `json:"type"` // hello|input|ping
	Input *DriveInput `json:"input,omitempty"`
}

// ServerEnvelope is sent from server to client.
type ServerEnvelope struct {
	Type     string    `json:"type"` // welcome|state|pong|error
	Tick     uint64    `json:"tick,omitempty"`
	State    *SimState `json:"state,omitempty"`
	ServerMS int64     `json:"server_ms,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// TelemetryEvent represents a gameplay/platform event.
type TelemetryEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	SessionID string                 `json:"session_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}
