package racer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
	"github.com/openarcade/roomhost/internal/testutil"
)

type RacerSuite struct {
	suite.Suite
	sim *Simulation
}

func TestRacerSuite(t *testing.T) {
	suite.Run(t, new(RacerSuite))
}

func (s *RacerSuite) SetupTest() {
	created, err := New(sim.Config{Logger: testutil.NopLogger()})
	s.Require().NoError(err)
	s.sim = created.(*Simulation)
}

func (s *RacerSuite) addCar(id model.ParticipantID) *participant {
	_, err := s.sim.AddParticipant(id, string(id), "")
	s.Require().NoError(err)
	return s.sim.participants[id]
}

func (s *RacerSuite) input(accel, turn float64) json.RawMessage {
	data, err := json.Marshal(Input{Accel: accel, Turn: turn})
	s.Require().NoError(err)
	return data
}

// Track construction

func (s *RacerSuite) TestTrackHasConfiguredCheckpointRing() {
	s.Len(s.sim.checkpoints, DefaultTuning().Checkpoints)
	s.Len(s.sim.barriers, 2)
	s.Len(s.sim.terrain, 1)
}

func (s *RacerSuite) TestCarsLineUpBehindStartLine() {
	a := s.addCar("p1")
	b := s.addCar("p2")

	s.Equal(a.pos.X, b.pos.X)
	s.Greater(b.pos.Y, a.pos.Y)
	s.Equal(-1, a.lastCheckpoint)
}

// Kinematics

func (s *RacerSuite) TestAccelerationMovesCarAlongHeading() {
	p := s.addCar("p1")
	start := p.pos

	s.sim.ApplyInput("p1", s.input(1, 0))
	s.sim.Advance(time.Second)

	// heading starts at -pi/2: the car drives up the track
	s.Less(p.pos.Y, start.Y)
	s.InDelta(start.X, p.pos.X, 1.0)
}

func (s *RacerSuite) TestTurnIneffectiveAtStandstill() {
	p := s.addCar("p1")
	heading := p.heading

	s.sim.ApplyInput("p1", s.input(0, 1))
	s.sim.Advance(time.Second)

	s.InDelta(heading, p.heading, 0.001)
}

func (s *RacerSuite) TestTurnRotatesHeadingAtSpeed() {
	p := s.addCar("p1")
	heading := p.heading

	s.sim.ApplyInput("p1", s.input(1, 1))
	s.sim.Advance(time.Second)
	s.sim.Advance(time.Second)

	s.Greater(p.heading, heading)
}

func (s *RacerSuite) TestInputClampedToUnitRange() {
	p := s.addCar("p1")

	s.sim.ApplyInput("p1", s.input(7, -9))

	s.Equal(1.0, p.accelIn)
	s.Equal(-1.0, p.turnIn)
}

func (s *RacerSuite) TestTerrainDecaysVelocityFaster() {
	a := s.addCar("p1")
	b := s.addCar("p2")

	cx, cy := s.sim.tuning.WorldWidth/2, s.sim.tuning.WorldHeight/2
	a.pos = sim.Vec2{X: cx, Y: cy} // infield terrain
	b.pos = sim.Vec2{X: 50, Y: 50} // open track
	a.vel = sim.Vec2{X: 100, Y: 0}
	b.vel = sim.Vec2{X: 100, Y: 0}

	s.sim.Advance(500 * time.Millisecond)

	s.Less(a.vel.Len(), b.vel.Len())
}

// Collisions

func (s *RacerSuite) TestHeadOnCollisionExchangesVelocity() {
	a := s.addCar("p1")
	b := s.addCar("p2")
	a.pos = sim.Vec2{X: 100, Y: 300}
	b.pos = sim.Vec2{X: 120, Y: 300}
	a.vel = sim.Vec2{X: 80, Y: 0}
	b.vel = sim.Vec2{X: -80, Y: 0}

	s.sim.resolveCollisions()

	s.InDelta(-80, a.vel.X, 0.001)
	s.InDelta(80, b.vel.X, 0.001)
	// separated to at least touching distance
	s.GreaterOrEqual(b.pos.X-a.pos.X, 2*carRadius-0.001)
}

func (s *RacerSuite) TestNonOverlappingCarsUntouched() {
	a := s.addCar("p1")
	b := s.addCar("p2")
	a.pos = sim.Vec2{X: 100, Y: 300}
	b.pos = sim.Vec2{X: 100 + 2*carRadius + 1, Y: 300}
	a.vel = sim.Vec2{X: 10, Y: 0}

	s.sim.resolveCollisions()

	s.Equal(sim.Vec2{X: 10, Y: 0}, a.vel)
	s.Equal(sim.Vec2{}, b.vel)
}

func (s *RacerSuite) TestBarrierPushesOutAndDamps() {
	p := s.addCar("p1")
	barrier := s.sim.barriers[0]
	p.pos = sim.Vec2{X: barrier.Min.X - carRadius + 1, Y: (barrier.Min.Y + barrier.Max.Y) / 2}
	p.vel = sim.Vec2{X: 200, Y: 0}

	s.sim.resolveBarriers(p)

	s.InDelta(barrier.Min.X-carRadius, p.pos.X, 0.001)
	s.InDelta(200*barrierDamping, p.vel.X, 0.001)
}

// Checkpoints and laps

func (s *RacerSuite) TestOutOfOrderCheckpointDoesNotCount() {
	p := s.addCar("p1")
	p.lastCheckpoint = 0

	p.pos = s.sim.checkpoints[2]
	s.sim.checkCheckpoints(p)

	s.Equal(0, p.lastCheckpoint)
}

func (s *RacerSuite) TestCheckpointsInOrderAdvanceProgress() {
	p := s.addCar("p1")
	p.lastCheckpoint = 0

	for k := 1; k < len(s.sim.checkpoints); k++ {
		p.pos = s.sim.checkpoints[k]
		s.sim.checkCheckpoints(p)
		s.Equal(k, p.lastCheckpoint)
	}
}

func (s *RacerSuite) TestFullRingCompletesLapAndRecordsBestLap() {
	p := s.addCar("p1")
	p.lastCheckpoint = 0
	p.lapStartedAt = 0
	s.sim.elapsed = 40 * time.Second

	for k := 1; k < len(s.sim.checkpoints); k++ {
		p.pos = s.sim.checkpoints[k]
		s.sim.checkCheckpoints(p)
	}
	p.pos = s.sim.checkpoints[0]
	s.sim.checkCheckpoints(p)

	s.Equal(1, p.laps)
	s.Equal(40*time.Second, p.bestLap)
	s.Equal(0, p.lastCheckpoint)

	// a faster second lap replaces the best
	s.sim.elapsed = 70 * time.Second
	for k := 1; k < len(s.sim.checkpoints); k++ {
		p.pos = s.sim.checkpoints[k]
		s.sim.checkCheckpoints(p)
	}
	p.pos = s.sim.checkpoints[0]
	s.sim.checkCheckpoints(p)

	s.Equal(2, p.laps)
	s.Equal(30*time.Second, p.bestLap)
}

func (s *RacerSuite) TestSkippingBackToStartDoesNotLap() {
	p := s.addCar("p1")
	p.lastCheckpoint = 1

	p.pos = s.sim.checkpoints[0]
	s.sim.checkCheckpoints(p)

	s.Equal(0, p.laps)
	s.Equal(1, p.lastCheckpoint)
}

// Race completion

func (s *RacerSuite) TestRaceFinishesWhenLapTargetReached() {
	winner := s.addCar("p1")
	other := s.addCar("p2")
	s.sim.DrainEvents()
	winner.laps = s.sim.tuning.TotalLaps

	s.sim.Advance(time.Millisecond)

	s.Equal(model.RoomStatusFinished, s.sim.Status())
	s.True(winner.finished)
	s.True(other.finished)

	var sawGameOver bool
	for _, e := range s.sim.DrainEvents() {
		if e.Type == model.EventGameOver {
			sawGameOver = true
		}
	}
	s.True(sawGameOver)
}

func (s *RacerSuite) TestFinishedRaceIgnoresInput() {
	p := s.addCar("p1")
	p.laps = s.sim.tuning.TotalLaps
	s.sim.Advance(time.Millisecond)

	s.sim.ApplyInput("p1", s.input(1, 0))

	s.Equal(0.0, p.accelIn)
}

// Results

func (s *RacerSuite) TestResultsRankedByLapsThenProgress() {
	a := s.addCar("p1")
	b := s.addCar("p2")
	c := s.addCar("p3")
	a.laps = 1
	a.lastCheckpoint = 2
	b.laps = 2
	c.laps = 1
	c.lastCheckpoint = 3

	results := s.sim.Results()
	s.Require().Len(results, 3)
	s.Equal("p2", results[0].ParticipantRef)
	s.Equal("p3", results[1].ParticipantRef)
	s.Equal("p1", results[2].ParticipantRef)
	s.Equal(1, results[0].Rank)
}

func (s *RacerSuite) TestSnapshotListsCarsInJoinOrder() {
	s.addCar("p1")
	s.addCar("p2")

	snap := s.sim.Snapshot().(Snapshot)
	s.Require().Len(snap.Cars, 2)
	s.Equal(model.ParticipantID("p1"), snap.Cars[0].ID)
	s.Equal(DefaultTuning().TotalLaps, snap.TotalLaps)
}
