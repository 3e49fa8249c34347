package racer

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
)

const (
	carRadius        = 16.0
	checkpointRadius = 60.0
	barrierDamping   = 0.2
)

// Input is the racer wire input: acceleration and turn, both clamped to [-1,1]
type Input struct {
	Accel float64 `json:"accel"`
	Turn  float64 `json:"turn"`
}

type participant struct {
	id        model.ParticipantID
	name      string
	walletRef string
	color     string

	pos     sim.Vec2
	vel     sim.Vec2
	heading float64 // radians

	accelIn float64
	turnIn  float64

	// lastCheckpoint is the index of the last checkpoint passed in order;
	// -1 until the first pass of checkpoint 0
	lastCheckpoint int
	laps           int
	lapStartedAt   time.Duration
	bestLap        time.Duration // 0 until a lap completes
	finished       bool
	finishedAt     time.Duration
}

func (p *participant) view() model.ParticipantView {
	return model.ParticipantView{
		ID:          p.id,
		DisplayName: p.name,
		Color:       p.color,
		Score:       p.laps,
		Alive:       true,
		GameOver:    p.finished,
		WalletRef:   p.walletRef,
	}
}

// rect is an axis-aligned box used for barriers and terrain zones
type rect struct {
	Min sim.Vec2 `json:"min"`
	Max sim.Vec2 `json:"max"`
}

func (r rect) contains(p sim.Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Simulation is the racer variant
type Simulation struct {
	tuning  Tuning
	logger  *slog.Logger
	palette sim.Palette
	events  sim.EventBuffer

	elapsed  time.Duration
	started  bool
	finished bool

	participants map[model.ParticipantID]*participant
	order        []model.ParticipantID

	checkpoints []sim.Vec2
	barriers    []rect
	terrain     []rect

	spawnIdx int
}

var _ sim.Simulation = (*Simulation)(nil)

// New constructs a racer simulation from room config
func New(cfg sim.Config) (sim.Simulation, error) {
	t := ParseTuning(cfg.Tuning)
	s := &Simulation{
		tuning:       t,
		logger:       cfg.Logger.With(slog.String("variant", "racer")),
		participants: make(map[model.ParticipantID]*participant),
	}
	s.buildTrack()
	return s, nil
}

// buildTrack lays the checkpoint ring as an ellipse around the world center,
// with an infield terrain zone and two barriers
func (s *Simulation) buildTrack() {
	w, h := s.tuning.WorldWidth, s.tuning.WorldHeight
	cx, cy := w/2, h/2
	rx, ry := w*0.35, h*0.35
	n := s.tuning.Checkpoints
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		s.checkpoints = append(s.checkpoints, sim.Vec2{
			X: cx + rx*math.Cos(a),
			Y: cy + ry*math.Sin(a),
		})
	}
	s.terrain = []rect{
		{Min: sim.Vec2{X: cx - rx*0.5, Y: cy - ry*0.5}, Max: sim.Vec2{X: cx + rx*0.5, Y: cy + ry*0.5}},
	}
	s.barriers = []rect{
		{Min: sim.Vec2{X: cx - 30, Y: 0}, Max: sim.Vec2{X: cx + 30, Y: h * 0.12}},
		{Min: sim.Vec2{X: cx - 30, Y: h * 0.88}, Max: sim.Vec2{X: cx + 30, Y: h}},
	}
}

// GameType implements sim.Simulation
func (s *Simulation) GameType() model.GameType { return model.GameTypeRacer }

// AddParticipant implements sim.Simulation: cars line up behind checkpoint 0
func (s *Simulation) AddParticipant(id model.ParticipantID, displayName, walletRef string) (model.ParticipantView, error) {
	if p, ok := s.participants[id]; ok {
		return p.view(), nil
	}
	start := s.checkpoints[0]
	p := &participant{
		id:             id,
		name:           displayName,
		walletRef:      walletRef,
		color:          s.palette.Next(),
		pos:            start.Add(sim.Vec2{X: 0, Y: float64(s.spawnIdx) * (carRadius*2 + 8)}),
		heading:        -math.Pi / 2,
		lastCheckpoint: -1,
	}
	s.spawnIdx++
	s.participants[id] = p
	s.order = append(s.order, id)
	s.started = true
	s.events.Push(model.Event{Type: model.EventParticipantJoined, Participant: id})
	return p.view(), nil
}

// RemoveParticipant implements sim.Simulation
func (s *Simulation) RemoveParticipant(id model.ParticipantID) {
	if _, ok := s.participants[id]; !ok {
		return
	}
	delete(s.participants, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.events.Push(model.Event{Type: model.EventParticipantLeft, Participant: id})
}

// Participant implements sim.Simulation
func (s *Simulation) Participant(id model.ParticipantID) (model.ParticipantView, bool) {
	p, ok := s.participants[id]
	if !ok {
		return model.ParticipantView{}, false
	}
	return p.view(), true
}

// ParticipantCount implements sim.Simulation
func (s *Simulation) ParticipantCount() int { return len(s.participants) }

// ApplyInput implements sim.Simulation
func (s *Simulation) ApplyInput(id model.ParticipantID, raw json.RawMessage) {
	p, ok := s.participants[id]
	if !ok || p.finished || s.finished {
		return
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	p.accelIn = sim.ClampAxis(in.Accel)
	p.turnIn = sim.ClampAxis(in.Turn)
}

// Advance implements sim.Simulation
func (s *Simulation) Advance(delta time.Duration) {
	if s.finished || delta <= 0 {
		return
	}
	s.elapsed += delta
	dt := delta.Seconds()

	for _, id := range s.order {
		s.integrate(s.participants[id], dt)
	}
	s.resolveCollisions()
	for _, id := range s.order {
		p := s.participants[id]
		s.resolveBarriers(p)
		s.checkCheckpoints(p)
	}
	s.checkRaceOver()
}

// integrate applies the drift-blend kinematic model for one car
func (s *Simulation) integrate(p *participant, dt float64) {
	t := s.tuning
	speed := p.vel.Len()

	// full turn rate is unavailable near zero speed
	responsiveness := math.Min(1, speed/t.TurnFullSpeed)
	p.heading += p.turnIn * t.TurnRate * responsiveness * dt

	headingDir := sim.Vec2{X: math.Cos(p.heading), Y: math.Sin(p.heading)}
	p.vel = p.vel.Add(headingDir.Scale(p.accelIn * t.Accel * dt))

	// drift blend: at low turn magnitude velocity aligns with heading,
	// at high turn magnitude it partially decouples
	speed = p.vel.Len()
	if speed > 0 {
		align := t.AlignRate * (1 - t.DriftAmount*math.Abs(p.turnIn)) * dt
		align = math.Max(0, math.Min(1, align))
		aligned := headingDir.Scale(speed)
		p.vel = p.vel.Scale(1 - align).Add(aligned.Scale(align))
	}

	// exponential friction, heavier on terrain
	decay := t.Friction
	for _, z := range s.terrain {
		if z.contains(p.pos) {
			decay = t.TerrainFriction
			break
		}
	}
	p.vel = p.vel.Scale(math.Exp(-decay * dt))

	p.pos = p.pos.Add(p.vel.Scale(dt))
	p.pos.X = math.Max(0, math.Min(t.WorldWidth, p.pos.X))
	p.pos.Y = math.Max(0, math.Min(t.WorldHeight, p.pos.Y))
}

// resolveCollisions applies a 1-D elastic impulse along the connecting
// normal for each overlapping pair, then separates them by half the overlap
func (s *Simulation) resolveCollisions() {
	for i := 0; i < len(s.order); i++ {
		for j := i + 1; j < len(s.order); j++ {
			a := s.participants[s.order[i]]
			b := s.participants[s.order[j]]
			dvec := b.pos.Sub(a.pos)
			dist := dvec.Len()
			overlap := 2*carRadius - dist
			if overlap <= 0 {
				continue
			}
			var n sim.Vec2
			if dist > 0 {
				n = dvec.Scale(1 / dist)
			} else {
				n = sim.Vec2{X: 1, Y: 0}
			}
			// equal masses: exchange the normal velocity components
			va := a.vel.Dot(n)
			vb := b.vel.Dot(n)
			a.vel = a.vel.Add(n.Scale(vb - va))
			b.vel = b.vel.Add(n.Scale(va - vb))
			// separate along the normal by half the overlap each
			a.pos = a.pos.Sub(n.Scale(overlap / 2))
			b.pos = b.pos.Add(n.Scale(overlap / 2))
		}
	}
}

// resolveBarriers pushes a car out along the nearest edge of any barrier it
// penetrates and heavily damps its velocity
func (s *Simulation) resolveBarriers(p *participant) {
	for _, b := range s.barriers {
		expanded := rect{
			Min: b.Min.Sub(sim.Vec2{X: carRadius, Y: carRadius}),
			Max: b.Max.Add(sim.Vec2{X: carRadius, Y: carRadius}),
		}
		if !expanded.contains(p.pos) {
			continue
		}
		left := p.pos.X - expanded.Min.X
		right := expanded.Max.X - p.pos.X
		top := p.pos.Y - expanded.Min.Y
		bottom := expanded.Max.Y - p.pos.Y
		min := math.Min(math.Min(left, right), math.Min(top, bottom))
		switch min {
		case left:
			p.pos.X = expanded.Min.X
		case right:
			p.pos.X = expanded.Max.X
		case top:
			p.pos.Y = expanded.Min.Y
		default:
			p.pos.Y = expanded.Max.Y
		}
		p.vel = p.vel.Scale(barrierDamping)
	}
}

// checkCheckpoints advances ring progress; passing checkpoint k only counts
// when the last-passed checkpoint was k-1 mod N
func (s *Simulation) checkCheckpoints(p *participant) {
	if p.finished {
		return
	}
	n := len(s.checkpoints)
	for k, cp := range s.checkpoints {
		if p.pos.Sub(cp).Len() > checkpointRadius {
			continue
		}
		if k == 0 {
			if p.lastCheckpoint == n-1 {
				// ring complete
				p.laps++
				lap := s.elapsed - p.lapStartedAt
				if p.bestLap == 0 || lap < p.bestLap {
					p.bestLap = lap
				}
				p.lapStartedAt = s.elapsed
				p.lastCheckpoint = 0
			} else if p.lastCheckpoint == -1 {
				// first crossing of the start line
				p.lapStartedAt = s.elapsed
				p.lastCheckpoint = 0
			}
		} else if p.lastCheckpoint == k-1 {
			p.lastCheckpoint = k
		}
	}
}

// checkRaceOver finishes the race once any car reaches the lap target
func (s *Simulation) checkRaceOver() {
	if s.finished {
		return
	}
	done := false
	for _, p := range s.participants {
		if p.laps >= s.tuning.TotalLaps {
			p.finished = true
			p.finishedAt = s.elapsed
			done = true
		}
	}
	if done {
		s.finished = true
		for _, p := range s.participants {
			p.finished = true
		}
		s.events.Push(model.Event{Type: model.EventGameOver, Data: s.Results()})
	}
}

// Status implements sim.Simulation
func (s *Simulation) Status() model.RoomStatus {
	switch {
	case s.finished:
		return model.RoomStatusFinished
	case s.started:
		return model.RoomStatusPlaying
	default:
		return model.RoomStatusWaiting
	}
}

// Results implements sim.Simulation: ranked by laps, then checkpoint
// progress, then best lap
func (s *Simulation) Results() []model.ResultEntry {
	ps := make([]*participant, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.participants[id])
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].laps != ps[j].laps {
			return ps[i].laps > ps[j].laps
		}
		if ps[i].lastCheckpoint != ps[j].lastCheckpoint {
			return ps[i].lastCheckpoint > ps[j].lastCheckpoint
		}
		if ps[i].bestLap == 0 {
			return false
		}
		return ps[j].bestLap == 0 || ps[i].bestLap < ps[j].bestLap
	})
	out := make([]model.ResultEntry, len(ps))
	for i, p := range ps {
		out[i] = model.ResultEntry{
			ParticipantRef: string(p.id),
			DisplayName:    p.name,
			Score:          p.laps,
			Rank:           i + 1,
			WalletRef:      p.walletRef,
			Metrics: map[string]float64{
				"laps":      float64(p.laps),
				"bestLapMs": float64(p.bestLap.Milliseconds()),
			},
		}
	}
	return out
}

// DrainEvents implements sim.Simulation
func (s *Simulation) DrainEvents() []model.Event {
	return s.events.Drain()
}

// Snapshot shapes

type carState struct {
	model.ParticipantView
	Pos            sim.Vec2 `json:"pos"`
	Vel            sim.Vec2 `json:"vel"`
	Heading        float64  `json:"heading"`
	Laps           int      `json:"laps"`
	LastCheckpoint int      `json:"lastCheckpoint"`
	BestLapMs      int64    `json:"bestLapMs"`
}

// Snapshot is the racer wire state
type Snapshot struct {
	Status      model.RoomStatus `json:"status"`
	WorldWidth  float64          `json:"worldWidth"`
	WorldHeight float64          `json:"worldHeight"`
	TotalLaps   int              `json:"totalLaps"`
	Checkpoints []sim.Vec2       `json:"checkpoints"`
	Barriers    []rect           `json:"barriers"`
	Terrain     []rect           `json:"terrain"`
	Cars        []carState       `json:"cars"`
}

// Snapshot implements sim.Simulation
func (s *Simulation) Snapshot() any {
	snap := Snapshot{
		Status:      s.Status(),
		WorldWidth:  s.tuning.WorldWidth,
		WorldHeight: s.tuning.WorldHeight,
		TotalLaps:   s.tuning.TotalLaps,
		Checkpoints: s.checkpoints,
		Barriers:    s.barriers,
		Terrain:     s.terrain,
	}
	for _, id := range s.order {
		p := s.participants[id]
		snap.Cars = append(snap.Cars, carState{
			ParticipantView: p.view(),
			Pos:             p.pos,
			Vel:             p.vel,
			Heading:         p.heading,
			Laps:            p.laps,
			LastCheckpoint:  p.lastCheckpoint,
			BestLapMs:       p.bestLap.Milliseconds(),
		})
	}
	return snap
}
