package shooter

import (
	"encoding/json"
	"time"
)

// Tuning holds the shooter variant's room-level knobs.
// Unknown keys in the tuning payload are ignored; out-of-range values fall
// back to defaults.
type Tuning struct {
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	MaxHealth int `json:"maxHealth"`
	Lives     int `json:"lives"`
	Bots      int `json:"bots"`

	MoveSpeed   float64 `json:"moveSpeed"`
	BulletSpeed float64 `json:"bulletSpeed"`

	BulletTTLMs      int `json:"bulletTtlMs"`
	FireCooldownMs   int `json:"fireCooldownMs"`
	RespawnDelayMs   int `json:"respawnDelayMs"`
	EffectDurationMs int `json:"effectDurationMs"`
	PickupRespawnMs  int `json:"pickupRespawnMs"`

	BotDetectionRadius float64 `json:"botDetectionRadius"`
	BotFireRange       float64 `json:"botFireRange"`
}

// DefaultTuning returns the stock arena setup
func DefaultTuning() Tuning {
	return Tuning{
		WorldWidth:         1600,
		WorldHeight:        900,
		MaxHealth:          100,
		Lives:              3,
		Bots:               0,
		MoveSpeed:          260,
		BulletSpeed:        650,
		BulletTTLMs:        1200,
		FireCooldownMs:     350,
		RespawnDelayMs:     2500,
		EffectDurationMs:   6000,
		PickupRespawnMs:    10000,
		BotDetectionRadius: 420,
		BotFireRange:       320,
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
	if in.MaxHealth > 0 {
		t.MaxHealth = in.MaxHealth
	}
	if in.Lives > 0 {
		t.Lives = in.Lives
	}
	if in.Bots > 0 {
		t.Bots = in.Bots
	}
	if in.MoveSpeed > 0 {
		t.MoveSpeed = in.MoveSpeed
	}
	if in.BulletSpeed > 0 {
		t.BulletSpeed = in.BulletSpeed
	}
	if in.BulletTTLMs > 0 {
		t.BulletTTLMs = in.BulletTTLMs
	}
	if in.FireCooldownMs > 0 {
		t.FireCooldownMs = in.FireCooldownMs
	}
	if in.RespawnDelayMs > 0 {
		t.RespawnDelayMs = in.RespawnDelayMs
	}
	if in.EffectDurationMs > 0 {
		t.EffectDurationMs = in.EffectDurationMs
	}
	if in.PickupRespawnMs > 0 {
		t.PickupRespawnMs = in.PickupRespawnMs
	}
	if in.BotDetectionRadius > 0 {
		t.BotDetectionRadius = in.BotDetectionRadius
	}
	if in.BotFireRange > 0 {
		t.BotFireRange = in.BotFireRange
	}
	return t
}

// Duration helpers over the millisecond knobs

func (t Tuning) BulletTTL() time.Duration      { return time.Duration(t.BulletTTLMs) * time.Millisecond }
func (t Tuning) FireCooldown() time.Duration   { return time.Duration(t.FireCooldownMs) * time.Millisecond }
func (t Tuning) RespawnDelay() time.Duration   { return time.Duration(t.RespawnDelayMs) * time.Millisecond }
func (t Tuning) EffectDuration() time.Duration { return time.Duration(t.EffectDurationMs) * time.Millisecond }
func (t Tuning) PickupRespawn() time.Duration  { return time.Duration(t.PickupRespawnMs) * time.Millisecond }
