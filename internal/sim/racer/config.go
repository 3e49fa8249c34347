package racer

import "encoding/json"

// Tuning holds the racer variant's room-level knobs
type Tuning struct {
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Laps to complete the race
	TotalLaps int `json:"totalLaps"`
	// Number of checkpoints on the ring
	Checkpoints int `json:"checkpoints"`

	Accel    float64 `json:"accel"`    // forward acceleration, units/s^2
	TurnRate float64 `json:"turnRate"` // max turn rate, rad/s

	// Exponential velocity decay rates, 1/s
	Friction        float64 `json:"friction"`
	TerrainFriction float64 `json:"terrainFriction"`

	// DriftAmount in [0,1]: how much high turn input decouples velocity
	// from heading
	DriftAmount float64 `json:"driftAmount"`
	// AlignRate controls how quickly velocity re-aligns to heading, 1/s
	AlignRate float64 `json:"alignRate"`
	// TurnFullSpeed is the speed at which full turn rate becomes available
	TurnFullSpeed float64 `json:"turnFullSpeed"`
}

// DefaultTuning returns the stock circuit setup
func DefaultTuning() Tuning {
	return Tuning{
		WorldWidth:      1600,
		WorldHeight:     900,
		TotalLaps:       3,
		Checkpoints:     4,
		Accel:           420,
		TurnRate:        2.8,
		Friction:        0.6,
		TerrainFriction: 2.4,
		DriftAmount:     0.7,
		AlignRate:       4.0,
		TurnFullSpeed:   120,
	}
}

// ParseTuning overlays a loose JSON payload onto the defaults
func ParseTuning(raw json.RawMessage) Tuning {
	t := DefaultTuning()
	if len(raw) == 0 {
		return t
	}
	var in Tuning
	if err := json.Unmarshal(raw, &in); err != nil {
		return t
	}
	if in.WorldWidth > 0 {
		t.WorldWidth = in.WorldWidth
	}
	if in.WorldHeight > 0 {
		t.WorldHeight = in.WorldHeight
	}
	if in.TotalLaps > 0 {
		t.TotalLaps = in.TotalLaps
	}
	if in.Checkpoints >= 2 {
		t.Checkpoints = in.Checkpoints
	}
	if in.Accel > 0 {
		t.Accel = in.Accel
	}
	if in.TurnRate > 0 {
		t.TurnRate = in.TurnRate
	}
	if in.Friction > 0 {
		t.Friction = in.Friction
	}
	if in.TerrainFriction > 0 {
		t.TerrainFriction = in.TerrainFriction
	}
	if in.DriftAmount > 0 && in.DriftAmount <= 1 {
		t.DriftAmount = in.DriftAmount
	}
	if in.AlignRate > 0 {
		t.AlignRate = in.AlignRate
	}
	if in.TurnFullSpeed > 0 {
		t.TurnFullSpeed = in.TurnFullSpeed
	}
	return t
}
