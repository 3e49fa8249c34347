package towerdefence

import (
	"encoding/json"
	"time"
)

// TowerSpec defines the base stats of one tower type. Upgrades scale damage
// and range; the cost of each successive upgrade increases with level.
type TowerSpec struct {
	Cost            int     `json:"cost"`
	Range           float64 `json:"range"`
	Damage          int     `json:"damage"`
	FireCooldownMs  int     `json:"fireCooldownMs"`
	ProjectileSpeed float64 `json:"projectileSpeed"`
	// SplashRadius 0 means single-target
	SplashRadius float64 `json:"splashRadius"`
}

// Tuning holds the tower-defence variant's room-level knobs
type Tuning struct {
	CastleHP       int     `json:"castleHp"`
	StartCurrency  int     `json:"startCurrency"`
	BuildSpots     int     `json:"buildSpots"`
	FinalWave      int     `json:"finalWave"`
	WaveBonus      int     `json:"waveBonus"`
	EnemyReward    int     `json:"enemyReward"`
	EnemyBaseHP    int     `json:"enemyBaseHp"`
	EnemyBaseCount int     `json:"enemyBaseCount"`
	EnemyPerWave   int     `json:"enemyPerWave"`
	EnemyHPPerWave int     `json:"enemyHpPerWave"`
	EnemySpeed     float64 `json:"enemySpeed"`
	EnemyCastleDmg int     `json:"enemyCastleDamage"`
	SpawnStaggerMs int     `json:"spawnStaggerMs"`
	SellRefundPct  int     `json:"sellRefundPct"`
	UpgradeCostPct int     `json:"upgradeCostPct"`

	// AutoWave starts the next wave automatically after the grace period
	AutoWave   bool `json:"autoWave"`
	AutoWaveMs int  `json:"autoWaveMs"`
}

// DefaultTuning returns the stock defence setup
func DefaultTuning() Tuning {
	return Tuning{
		CastleHP:       100,
		StartCurrency:  150,
		BuildSpots:     8,
		FinalWave:      10,
		WaveBonus:      50,
		EnemyReward:    10,
		EnemyBaseHP:    40,
		EnemyBaseCount: 6,
		EnemyPerWave:   2,
		EnemyHPPerWave: 15,
		EnemySpeed:     70,
		EnemyCastleDmg: 10,
		SpawnStaggerMs: 800,
		SellRefundPct:  60,
		UpgradeCostPct: 80,
		AutoWave:       false,
		AutoWaveMs:     8000,
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
	if in.CastleHP > 0 {
		t.CastleHP = in.CastleHP
	}
	if in.StartCurrency > 0 {
		t.StartCurrency = in.StartCurrency
	}
	if in.BuildSpots > 0 {
		t.BuildSpots = in.BuildSpots
	}
	if in.FinalWave > 0 {
		t.FinalWave = in.FinalWave
	}
	if in.WaveBonus > 0 {
		t.WaveBonus = in.WaveBonus
	}
	if in.EnemyReward > 0 {
		t.EnemyReward = in.EnemyReward
	}
	if in.EnemyBaseHP > 0 {
		t.EnemyBaseHP = in.EnemyBaseHP
	}
	if in.EnemyBaseCount > 0 {
		t.EnemyBaseCount = in.EnemyBaseCount
	}
	if in.EnemyPerWave > 0 {
		t.EnemyPerWave = in.EnemyPerWave
	}
	if in.EnemyHPPerWave > 0 {
		t.EnemyHPPerWave = in.EnemyHPPerWave
	}
	if in.EnemySpeed > 0 {
		t.EnemySpeed = in.EnemySpeed
	}
	if in.EnemyCastleDmg > 0 {
		t.EnemyCastleDmg = in.EnemyCastleDmg
	}
	if in.SpawnStaggerMs > 0 {
		t.SpawnStaggerMs = in.SpawnStaggerMs
	}
	if in.SellRefundPct > 0 && in.SellRefundPct <= 100 {
		t.SellRefundPct = in.SellRefundPct
	}
	if in.UpgradeCostPct > 0 {
		t.UpgradeCostPct = in.UpgradeCostPct
	}
	t.AutoWave = in.AutoWave
	if in.AutoWaveMs > 0 {
		t.AutoWaveMs = in.AutoWaveMs
	}
	return t
}

func (t Tuning) SpawnStagger() time.Duration { return time.Duration(t.SpawnStaggerMs) * time.Millisecond }
func (t Tuning) AutoWaveGrace() time.Duration { return time.Duration(t.AutoWaveMs) * time.Millisecond }

// towerSpecs is the built-in tower type table
var towerSpecs = map[string]TowerSpec{
	"arrow": {
		Cost:            50,
		Range:           180,
		Damage:          12,
		FireCooldownMs:  500,
		ProjectileSpeed: 420,
	},
	"cannon": {
		Cost:            90,
		Range:           150,
		Damage:          30,
		FireCooldownMs:  1400,
		ProjectileSpeed: 300,
		SplashRadius:    70,
	},
}
