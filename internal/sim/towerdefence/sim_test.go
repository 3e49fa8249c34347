package towerdefence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
	"github.com/openarcade/roomhost/internal/testutil"
)

type TowerDefenceSuite struct {
	suite.Suite
	sim *Simulation
}

func TestTowerDefenceSuite(t *testing.T) {
	suite.Run(t, new(TowerDefenceSuite))
}

func (s *TowerDefenceSuite) SetupTest() {
	s.sim = s.newSim(nil)
}

func (s *TowerDefenceSuite) newSim(tuning json.RawMessage) *Simulation {
	created, err := New(sim.Config{Tuning: tuning, Logger: testutil.NopLogger()})
	s.Require().NoError(err)
	return created.(*Simulation)
}

func (s *TowerDefenceSuite) command(in Input) json.RawMessage {
	data, err := json.Marshal(in)
	s.Require().NoError(err)
	return data
}

func (s *TowerDefenceSuite) join(id model.ParticipantID) *participant {
	_, err := s.sim.AddParticipant(id, string(id), "")
	s.Require().NoError(err)
	return s.sim.participants[id]
}

// Building

func (s *TowerDefenceSuite) TestBuildDebitsSharedWallet() {
	p := s.join("p1")

	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))

	s.Require().Len(s.sim.towers, 1)
	t := s.sim.towers[0]
	s.Equal(model.ParticipantID("p1"), t.owner)
	s.Equal("arrow", t.kind)
	s.Equal(1, t.level)
	s.Equal(s.sim.tuning.StartCurrency-towerSpecs["arrow"].Cost, s.sim.currency)
	s.Equal(towerSpecs["arrow"].Cost, p.spent)
}

func (s *TowerDefenceSuite) TestBuildRejectsOccupiedSpot() {
	s.join("p1")
	s.join("p2")

	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 3, TowerType: "arrow"}))
	s.sim.ApplyInput("p2", s.command(Input{Command: "build", Spot: 3, TowerType: "cannon"}))

	s.Require().Len(s.sim.towers, 1)
	s.Equal("arrow", s.sim.towers[0].kind)
}

func (s *TowerDefenceSuite) TestBuildRejectsInsufficientFunds() {
	s.join("p1")
	s.sim.currency = towerSpecs["cannon"].Cost - 1

	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "cannon"}))

	s.Empty(s.sim.towers)
	s.Equal(towerSpecs["cannon"].Cost-1, s.sim.currency)
}

func (s *TowerDefenceSuite) TestBuildRejectsUnknownTowerType() {
	s.join("p1")

	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "laser"}))

	s.Empty(s.sim.towers)
}

func (s *TowerDefenceSuite) TestBuildRejectsInvalidSpot() {
	s.join("p1")

	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 99, TowerType: "arrow"}))

	s.Empty(s.sim.towers)
}

// Upgrading and selling

func (s *TowerDefenceSuite) TestUpgradeIncreasesStatsAndCost() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	t := s.sim.towers[0]
	baseDamage := t.spec.Damage
	firstCost := s.sim.upgradeCost(t)

	s.sim.ApplyInput("p1", s.command(Input{Command: "upgrade", Tower: t.id}))

	s.Equal(2, t.level)
	s.Greater(t.spec.Damage, baseDamage)
	// the next upgrade costs more than the first
	s.Greater(s.sim.upgradeCost(t), firstCost)
}

func (s *TowerDefenceSuite) TestUpgradeRejectedWhenUnaffordable() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	t := s.sim.towers[0]
	s.sim.currency = 0

	s.sim.ApplyInput("p1", s.command(Input{Command: "upgrade", Tower: t.id}))

	s.Equal(1, t.level)
}

func (s *TowerDefenceSuite) TestSellRefundsPartOfInvestmentAndFreesSpot() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	t := s.sim.towers[0]
	before := s.sim.currency

	s.sim.ApplyInput("p1", s.command(Input{Command: "sell", Tower: t.id}))

	s.Empty(s.sim.towers)
	refund := towerSpecs["arrow"].Cost * s.sim.tuning.SellRefundPct / 100
	s.Equal(before+refund, s.sim.currency)

	// the spot accepts a new tower again
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	s.Len(s.sim.towers, 1)
}

// Waves

func (s *TowerDefenceSuite) TestStartWaveQueuesStaggeredSpawns() {
	s.join("p1")

	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))

	s.Equal(1, s.sim.wave)
	s.True(s.sim.waveActive)
	s.Equal(model.RoomStatusPlaying, s.sim.Status())
	s.Len(s.sim.spawnQueue, s.sim.tuning.EnemyBaseCount)
}

func (s *TowerDefenceSuite) TestStartWaveWhileActiveIsNoOp() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))
	queued := len(s.sim.spawnQueue)
	currency := s.sim.currency

	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))

	s.Equal(1, s.sim.wave)
	s.Len(s.sim.spawnQueue, queued)
	s.Equal(currency, s.sim.currency)
}

func (s *TowerDefenceSuite) TestSpawnsReleaseOnStagger() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))

	s.sim.Advance(time.Millisecond)
	s.Len(s.sim.enemies, 1)

	s.sim.Advance(s.sim.tuning.SpawnStagger())
	s.Len(s.sim.enemies, 2)
}

func (s *TowerDefenceSuite) TestLaterWavesScaleCountAndHP() {
	s.join("p1")
	s.sim.wave = 2
	s.sim.startWave() // wave 3

	t := s.sim.tuning
	s.Len(s.sim.spawnQueue, t.EnemyBaseCount+2*t.EnemyPerWave)
	s.Equal(t.EnemyBaseHP+2*t.EnemyHPPerWave, s.sim.spawnHP)
}

func (s *TowerDefenceSuite) TestEnemiesWalkThePath() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))
	s.sim.Advance(time.Millisecond)
	e := s.sim.enemies[0]

	s.sim.Advance(time.Second)

	s.InDelta(s.sim.tuning.EnemySpeed, e.pos.X, 1.0)
	s.InDelta(450, e.pos.Y, 0.001)
}

func (s *TowerDefenceSuite) TestBreachDamagesCastle() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))
	s.sim.Advance(time.Millisecond)
	e := s.sim.enemies[0]
	e.segment = len(s.sim.path) - 1

	s.sim.Advance(time.Millisecond)

	s.Equal(s.sim.tuning.CastleHP-s.sim.tuning.EnemyCastleDmg, s.sim.castleHP)
	s.Empty(s.sim.enemies)
}

func (s *TowerDefenceSuite) TestCastleFallEndsGameAsLoss() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "startWave"}))
	s.sim.DrainEvents()
	s.sim.Advance(time.Millisecond)
	s.sim.castleHP = s.sim.tuning.EnemyCastleDmg
	s.sim.enemies[0].segment = len(s.sim.path) - 1

	s.sim.Advance(time.Millisecond)

	s.Equal(model.RoomStatusFinished, s.sim.Status())
	s.False(s.sim.won)
	s.Equal(0, s.sim.castleHP)

	var sawGameOver bool
	for _, e := range s.sim.DrainEvents() {
		if e.Type == model.EventGameOver {
			sawGameOver = true
		}
	}
	s.True(sawGameOver)
}

func (s *TowerDefenceSuite) TestClearingFinalWaveWins() {
	wsim := s.newSim(json.RawMessage(`{"finalWave": 1, "enemyBaseCount": 1, "enemyBaseHp": 1}`))
	_, err := wsim.AddParticipant("p1", "p1", "")
	s.Require().NoError(err)
	wsim.startWave()
	wsim.DrainEvents()
	wsim.Advance(time.Millisecond)
	s.Require().Len(wsim.enemies, 1)

	wsim.damage(wsim.enemies[0], 1, "p1")
	wsim.Advance(time.Millisecond)

	s.Equal(model.RoomStatusFinished, wsim.Status())
	s.True(wsim.won)
	s.Equal(1, wsim.participants["p1"].kills)
}

func (s *TowerDefenceSuite) TestWaveCompletionGrantsBonus() {
	wsim := s.newSim(json.RawMessage(`{"enemyBaseCount": 1, "enemyBaseHp": 1}`))
	_, err := wsim.AddParticipant("p1", "p1", "")
	s.Require().NoError(err)
	wsim.startWave()
	wsim.Advance(time.Millisecond)
	before := wsim.currency

	wsim.damage(wsim.enemies[0], 1, "p1")
	wsim.Advance(time.Millisecond)

	s.False(wsim.waveActive)
	s.Equal(before+wsim.tuning.EnemyReward+wsim.tuning.WaveBonus, wsim.currency)
}

func (s *TowerDefenceSuite) TestAutoWaveStartsAfterGrace() {
	wsim := s.newSim(json.RawMessage(`{"autoWave": true, "autoWaveMs": 1000, "enemyBaseCount": 1, "enemyBaseHp": 1}`))
	_, err := wsim.AddParticipant("p1", "p1", "")
	s.Require().NoError(err)
	wsim.startWave()
	wsim.Advance(time.Millisecond)
	wsim.damage(wsim.enemies[0], 1, "p1")
	wsim.Advance(time.Millisecond)
	s.Require().False(wsim.waveActive)

	wsim.Advance(time.Second)

	s.True(wsim.waveActive)
	s.Equal(2, wsim.wave)
}

// Combat

func (s *TowerDefenceSuite) TestTowerFiresAtEnemyInRange() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	s.sim.enemies = append(s.sim.enemies, &enemy{id: 1, hp: 40, maxHP: 40, pos: s.sim.spots[0].Add(sim.Vec2{X: 50, Y: 0})})

	s.sim.advanceTowers()

	s.Require().Len(s.sim.projectiles, 1)
	s.Equal(1, s.sim.projectiles[0].targetID)
	s.Greater(s.sim.towers[0].fireReadyAt, s.sim.elapsed)
}

func (s *TowerDefenceSuite) TestTowerHoldsFireOutOfRange() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))
	far := s.sim.spots[0].Add(sim.Vec2{X: towerSpecs["arrow"].Range + 100, Y: 0})
	s.sim.enemies = append(s.sim.enemies, &enemy{id: 1, hp: 40, maxHP: 40, pos: far})

	s.sim.advanceTowers()

	s.Empty(s.sim.projectiles)
}

func (s *TowerDefenceSuite) TestProjectileKillCreditsOwner() {
	p := s.join("p1")
	s.sim.enemies = append(s.sim.enemies, &enemy{id: 1, hp: 5, maxHP: 5, pos: sim.Vec2{X: 300, Y: 300}})
	s.sim.projectiles = append(s.sim.projectiles, &projectile{
		pos: sim.Vec2{X: 299, Y: 300}, speed: 400, damage: 12, owner: "p1", targetID: 1,
	})
	before := s.sim.currency

	s.sim.advanceProjectiles(0.05)

	s.Empty(s.sim.enemies)
	s.Equal(1, p.kills)
	s.Equal(before+s.sim.tuning.EnemyReward, s.sim.currency)
}

func (s *TowerDefenceSuite) TestProjectileFizzlesWhenTargetGone() {
	s.join("p1")
	s.sim.projectiles = append(s.sim.projectiles, &projectile{
		pos: sim.Vec2{X: 300, Y: 300}, speed: 400, damage: 12, owner: "p1", targetID: 42,
	})

	s.sim.advanceProjectiles(0.05)

	s.Empty(s.sim.projectiles)
}

func (s *TowerDefenceSuite) TestSplashDamageFallsOffWithDistance() {
	s.join("p1")
	target := &enemy{id: 1, hp: 100, maxHP: 100, pos: sim.Vec2{X: 300, Y: 300}}
	near := &enemy{id: 2, hp: 100, maxHP: 100, pos: sim.Vec2{X: 335, Y: 300}}
	outside := &enemy{id: 3, hp: 100, maxHP: 100, pos: sim.Vec2{X: 500, Y: 300}}
	s.sim.enemies = append(s.sim.enemies, target, near, outside)
	pr := &projectile{damage: 30, splash: 70, owner: "p1", targetID: 1}

	s.sim.impact(pr, target)

	s.Equal(70, target.hp)
	// 35 units from center: half the splash radius, half damage
	s.Equal(85, near.hp)
	s.Equal(100, outside.hp)
}

// Departed participants

func (s *TowerDefenceSuite) TestTowersSurviveOwnerLeaving() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 0, TowerType: "arrow"}))

	s.sim.RemoveParticipant("p1")

	s.Len(s.sim.towers, 1)
	s.Equal(0, s.sim.ParticipantCount())
}

// Results

func (s *TowerDefenceSuite) TestResultsRankedByKills() {
	a := s.join("p1")
	b := s.join("p2")
	a.kills = 3
	b.kills = 7

	results := s.sim.Results()
	s.Require().Len(results, 2)
	s.Equal("p2", results[0].ParticipantRef)
	s.Equal(1, results[0].Rank)
	s.Equal(7, results[0].Score)
}

// Tuning

func (s *TowerDefenceSuite) TestTuningOverlaysDefaults() {
	t := ParseTuning(json.RawMessage(`{"castleHp": 250, "sellRefundPct": 90}`))

	s.Equal(250, t.CastleHP)
	s.Equal(90, t.SellRefundPct)
	s.Equal(DefaultTuning().StartCurrency, t.StartCurrency)
}

func (s *TowerDefenceSuite) TestMalformedTuningFallsBackToDefaults() {
	s.Equal(DefaultTuning(), ParseTuning(json.RawMessage(`{"castleHp": `)))
}

func (s *TowerDefenceSuite) TestSnapshotCarriesSharedState() {
	s.join("p1")
	s.sim.ApplyInput("p1", s.command(Input{Command: "build", Spot: 2, TowerType: "cannon"}))

	snap := s.sim.Snapshot().(Snapshot)

	s.Equal(s.sim.castleHP, snap.CastleHP)
	s.Equal(s.sim.currency, snap.Currency)
	s.Len(snap.Towers, 1)
	s.Equal(s.sim.spots[2], snap.Towers[0].Pos)
	s.NotEmpty(snap.Path)
}
