package shooter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/random"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
)

const (
	participantRadius = 18.0
	pickupRadius      = 22.0
	teleporterRadius  = 28.0
	teleportCooldown  = 1500 * time.Millisecond
	botRetargetEvery  = 2 * time.Second
)

// Input is the shooter wire input: continuous movement and aim plus a fire
// intent. Components outside [-1,1] are clamped; malformed payloads default.
type Input struct {
	Move sim.Vec2 `json:"move"`
	Aim  sim.Vec2 `json:"aim"`
	Fire bool     `json:"fire"`
}

// Simulation is the arena shooter variant
type Simulation struct {
	tuning  Tuning
	rng     random.Random
	logger  *slog.Logger
	palette sim.Palette
	events  sim.EventBuffer

	// elapsed is accumulated simulation time; all timers key off it
	elapsed  time.Duration
	started  bool
	finished bool

	participants map[model.ParticipantID]*participant
	order        []model.ParticipantID
	bullets      []*bullet
	pickups      []*pickup
	teleporters  []teleporter
	bouncers     []bouncer

	spawnIdx int
	botSeq   int
}

var _ sim.Simulation = (*Simulation)(nil)

// New constructs a shooter simulation from room config
func New(cfg sim.Config) (sim.Simulation, error) {
	t := ParseTuning(cfg.Tuning)
	s := &Simulation{
		tuning:       t,
		rng:          cfg.Random,
		logger:       cfg.Logger.With(slog.String("variant", "shooter")),
		participants: make(map[model.ParticipantID]*participant),
	}
	s.seedWorld()
	for i := 0; i < t.Bots; i++ {
		s.addBot()
	}
	return s, nil
}

// seedWorld places the static interactive objects from the world dimensions
func (s *Simulation) seedWorld() {
	w, h := s.tuning.WorldWidth, s.tuning.WorldHeight
	s.teleporters = []teleporter{
		{pos: sim.Vec2{X: w * 0.15, Y: h * 0.5}, twin: 1, radius: teleporterRadius},
		{pos: sim.Vec2{X: w * 0.85, Y: h * 0.5}, twin: 0, radius: teleporterRadius},
	}
	s.pickups = []*pickup{
		{kind: pickupSpeed, pos: sim.Vec2{X: w * 0.5, Y: h * 0.2}, active: true},
		{kind: pickupShield, pos: sim.Vec2{X: w * 0.5, Y: h * 0.8}, active: true},
	}
	s.bouncers = []bouncer{
		{min: sim.Vec2{X: w/2 - 80, Y: h/2 - 40}, max: sim.Vec2{X: w/2 + 80, Y: h/2 + 40}},
	}
}

// GameType implements sim.Simulation
func (s *Simulation) GameType() model.GameType { return model.GameTypeShooter }

func (s *Simulation) spawnPos() sim.Vec2 {
	w, h := s.tuning.WorldWidth, s.tuning.WorldHeight
	spots := []sim.Vec2{
		{X: w * 0.1, Y: h * 0.1},
		{X: w * 0.9, Y: h * 0.1},
		{X: w * 0.1, Y: h * 0.9},
		{X: w * 0.9, Y: h * 0.9},
		{X: w * 0.5, Y: h * 0.1},
		{X: w * 0.5, Y: h * 0.9},
	}
	p := spots[s.spawnIdx%len(spots)]
	s.spawnIdx++
	return p
}

func (s *Simulation) newParticipant(id model.ParticipantID, name, walletRef string, isBot bool) *participant {
	p := &participant{
		id:        id,
		name:      name,
		walletRef: walletRef,
		color:     s.palette.Next(),
		isBot:     isBot,
		pos:       s.spawnPos(),
		health:    s.tuning.MaxHealth,
		lives:     s.tuning.Lives,
		alive:     true,
		state:     botWander,
		effects:   make(map[effectKind]time.Duration),
	}
	s.participants[id] = p
	s.order = append(s.order, id)
	return p
}

func (s *Simulation) addBot() {
	s.botSeq++
	id := model.ParticipantID(fmt.Sprintf("bot-%d", s.botSeq))
	s.newParticipant(id, fmt.Sprintf("Bot %d", s.botSeq), "", true)
}

// AddParticipant implements sim.Simulation
func (s *Simulation) AddParticipant(id model.ParticipantID, displayName, walletRef string) (model.ParticipantView, error) {
	if p, ok := s.participants[id]; ok {
		return p.view(), nil
	}
	p := s.newParticipant(id, displayName, walletRef, false)
	s.started = true
	s.events.Push(model.Event{Type: model.EventParticipantJoined, Participant: id})
	return p.view(), nil
}

// RemoveParticipant implements sim.Simulation. Bots are not removed.
func (s *Simulation) RemoveParticipant(id model.ParticipantID) {
	p, ok := s.participants[id]
	if !ok || p.isBot {
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

// ParticipantCount implements sim.Simulation; bots are excluded
func (s *Simulation) ParticipantCount() int {
	n := 0
	for _, p := range s.participants {
		if !p.isBot {
			n++
		}
	}
	return n
}

// ApplyInput implements sim.Simulation. Movement and aim are clamped;
// a fire intent spawns a bullet immediately if the cooldown allows.
func (s *Simulation) ApplyInput(id model.ParticipantID, raw json.RawMessage) {
	p, ok := s.participants[id]
	if !ok || p.isBot || !p.alive || p.gameOver || s.finished {
		return
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	p.move = in.Move.ClampUnit()
	aim := sim.Vec2{X: sim.ClampAxis(in.Aim.X), Y: sim.ClampAxis(in.Aim.Y)}
	if aim.Len() > 0 {
		p.aim = aim.Normalized()
	}
	if in.Fire {
		s.fire(p)
	}
}

// fire spawns a bullet along the shooter's aim, at most once per cooldown
func (s *Simulation) fire(p *participant) {
	if s.elapsed < p.fireReadyAt {
		return
	}
	dir := p.aim
	if dir.Len() == 0 {
		dir = sim.Vec2{X: 1, Y: 0}
	}
	s.bullets = append(s.bullets, &bullet{
		owner:     p.id,
		pos:       p.pos.Add(dir.Scale(participantRadius + 2)),
		vel:       dir.Scale(s.tuning.BulletSpeed),
		expiresAt: s.elapsed + s.tuning.BulletTTL(),
	})
	p.fireReadyAt = s.elapsed + s.tuning.FireCooldown()
}

// Advance implements sim.Simulation
func (s *Simulation) Advance(delta time.Duration) {
	if s.finished || delta <= 0 {
		return
	}
	s.elapsed += delta
	dt := delta.Seconds()

	for _, id := range s.order {
		p := s.participants[id]
		if p.isBot {
			s.advanceBot(p)
		}
		if p.alive {
			s.integrate(p, dt)
		}
	}
	s.advanceBullets(dt)
	s.advancePickups()
	s.advanceRespawns()
	s.checkGameOver()
}

// integrate moves a participant and resolves world-object interactions
func (s *Simulation) integrate(p *participant, dt float64) {
	speed := s.tuning.MoveSpeed
	if p.effectActive(effectSpeedBoost, s.elapsed) {
		speed *= speedBoostFactor
	}
	p.pos = p.pos.Add(p.move.Scale(speed * dt))
	p.pos.X = math.Max(0, math.Min(s.tuning.WorldWidth, p.pos.X))
	p.pos.Y = math.Max(0, math.Min(s.tuning.WorldHeight, p.pos.Y))

	// teleporter pair
	if s.elapsed >= p.teleportReadyAt {
		for _, t := range s.teleporters {
			if p.pos.Sub(t.pos).Len() <= t.radius {
				p.pos = s.teleporters[t.twin].pos.Add(sim.Vec2{X: 0, Y: t.radius + participantRadius})
				p.teleportReadyAt = s.elapsed + teleportCooldown
				break
			}
		}
	}

	// timed pickups
	for _, pk := range s.pickups {
		if pk.active && p.pos.Sub(pk.pos).Len() <= pickupRadius+participantRadius {
			switch pk.kind {
			case pickupSpeed:
				p.effects[effectSpeedBoost] = s.elapsed + s.tuning.EffectDuration()
			case pickupShield:
				p.effects[effectShield] = s.elapsed + s.tuning.EffectDuration()
			}
			pk.active = false
			pk.respawnAt = s.elapsed + s.tuning.PickupRespawn()
		}
	}
}

// advanceBot runs the chase-or-wander FSM for one bot
func (s *Simulation) advanceBot(b *participant) {
	if !b.alive {
		return
	}
	target, dist := s.nearestAlivePlayer(b)
	if target != nil && dist <= s.tuning.BotDetectionRadius {
		b.state = botChase
		b.targetID = target.id
		dir := target.pos.Sub(b.pos).Normalized()
		b.move = dir
		b.aim = dir
		if dist <= s.tuning.BotFireRange {
			s.fire(b)
		}
		return
	}
	b.state = botWander
	b.targetID = ""
	if s.elapsed >= b.retargetAt {
		angle := s.rng.Float64() * 2 * math.Pi
		b.wanderDir = sim.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
		b.retargetAt = s.elapsed + botRetargetEvery
	}
	b.move = b.wanderDir
	b.aim = b.wanderDir
}

// nearestAlivePlayer returns the closest alive non-bot participant
func (s *Simulation) nearestAlivePlayer(from *participant) (*participant, float64) {
	var best *participant
	bestDist := math.MaxFloat64
	for _, id := range s.order {
		p := s.participants[id]
		if p.isBot || !p.alive || p == from {
			continue
		}
		d := p.pos.Sub(from.pos).Len()
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best, bestDist
}

func (s *Simulation) advanceBullets(dt float64) {
	kept := s.bullets[:0]
	for _, b := range s.bullets {
		if s.elapsed >= b.expiresAt {
			continue
		}
		b.pos = b.pos.Add(b.vel.Scale(dt)).Wrap(s.tuning.WorldWidth, s.tuning.WorldHeight)

		for _, bn := range s.bouncers {
			if bn.contains(b.pos) {
				b.vel = bn.reflect(b.pos, b.vel)
				break
			}
		}

		hitSomeone := false
		for _, id := range s.order {
			p := s.participants[id]
			if p.id == b.owner || !p.alive {
				continue
			}
			if p.pos.Sub(b.pos).Len() <= participantRadius {
				s.hit(p, b.owner)
				hitSomeone = true
				break
			}
		}
		if !hitSomeone {
			kept = append(kept, b)
		}
	}
	s.bullets = kept
}

// hit resolves a bullet landing on a participant. An active shield absorbs
// the hit entirely; the shield itself expires only by time.
func (s *Simulation) hit(target *participant, shooterID model.ParticipantID) {
	if !target.alive || target.gameOver {
		return
	}
	if target.effectActive(effectShield, s.elapsed) {
		return
	}
	target.health = 0
	target.alive = false
	target.deaths++
	target.lives--
	if sh, ok := s.participants[shooterID]; ok && sh != target {
		sh.kills++
	}
	if target.lives <= 0 {
		// terminal for this participant: no further respawns
		target.gameOver = true
		s.events.Push(model.Event{Type: model.EventParticipantOut, Participant: target.id})
		return
	}
	target.respawnAt = s.elapsed + s.tuning.RespawnDelay()
}

func (s *Simulation) advancePickups() {
	for _, pk := range s.pickups {
		if !pk.active && s.elapsed >= pk.respawnAt {
			pk.active = true
		}
	}
}

func (s *Simulation) advanceRespawns() {
	for _, id := range s.order {
		p := s.participants[id]
		if !p.alive && !p.gameOver && s.elapsed >= p.respawnAt {
			p.alive = true
			p.health = s.tuning.MaxHealth
			p.pos = s.spawnPos()
			p.move = sim.Vec2{}
		}
	}
}

// checkGameOver finishes the simulation once every player has exhausted
// their lives
func (s *Simulation) checkGameOver() {
	if !s.started || s.finished {
		return
	}
	players := 0
	out := 0
	for _, p := range s.participants {
		if p.isBot {
			continue
		}
		players++
		if p.gameOver {
			out++
		}
	}
	if players > 0 && players == out {
		s.finished = true
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

// Results implements sim.Simulation: players ranked by kills, fewest deaths
// breaking ties. Bots are excluded from standings.
func (s *Simulation) Results() []model.ResultEntry {
	var ps []*participant
	for _, id := range s.order {
		if p := s.participants[id]; !p.isBot {
			ps = append(ps, p)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].kills != ps[j].kills {
			return ps[i].kills > ps[j].kills
		}
		return ps[i].deaths < ps[j].deaths
	})
	out := make([]model.ResultEntry, len(ps))
	for i, p := range ps {
		out[i] = model.ResultEntry{
			ParticipantRef: string(p.id),
			DisplayName:    p.name,
			Score:          p.kills,
			Rank:           i + 1,
			WalletRef:      p.walletRef,
			Metrics: map[string]float64{
				"kills":  float64(p.kills),
				"deaths": float64(p.deaths),
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

type participantState struct {
	model.ParticipantView
	Pos     sim.Vec2 `json:"pos"`
	Aim     sim.Vec2 `json:"aim"`
	Health  int      `json:"health"`
	Lives   int      `json:"lives"`
	Kills   int      `json:"kills"`
	Deaths  int      `json:"deaths"`
	IsBot   bool     `json:"isBot"`
	Effects []string `json:"effects,omitempty"`
}

type bulletState struct {
	Owner model.ParticipantID `json:"owner"`
	Pos   sim.Vec2            `json:"pos"`
}

type pickupState struct {
	Kind   pickupKind `json:"kind"`
	Pos    sim.Vec2   `json:"pos"`
	Active bool       `json:"active"`
}

type teleporterState struct {
	Pos    sim.Vec2 `json:"pos"`
	Radius float64  `json:"radius"`
}

type bouncerState struct {
	Min sim.Vec2 `json:"min"`
	Max sim.Vec2 `json:"max"`
}

// Snapshot is the shooter wire state
type Snapshot struct {
	Status       model.RoomStatus   `json:"status"`
	WorldWidth   float64            `json:"worldWidth"`
	WorldHeight  float64            `json:"worldHeight"`
	Participants []participantState `json:"participants"`
	Bullets      []bulletState      `json:"bullets"`
	Pickups      []pickupState      `json:"pickups"`
	Teleporters  []teleporterState  `json:"teleporters"`
	Bouncers     []bouncerState     `json:"bouncers"`
}

// Snapshot implements sim.Simulation
func (s *Simulation) Snapshot() any {
	snap := Snapshot{
		Status:      s.Status(),
		WorldWidth:  s.tuning.WorldWidth,
		WorldHeight: s.tuning.WorldHeight,
	}
	for _, id := range s.order {
		p := s.participants[id]
		ps := participantState{
			ParticipantView: p.view(),
			Pos:             p.pos,
			Aim:             p.aim,
			Health:          p.health,
			Lives:           p.lives,
			Kills:           p.kills,
			Deaths:          p.deaths,
			IsBot:           p.isBot,
		}
		for kind := range p.effects {
			if p.effectActive(kind, s.elapsed) {
				ps.Effects = append(ps.Effects, string(kind))
			}
		}
		snap.Participants = append(snap.Participants, ps)
	}
	for _, b := range s.bullets {
		snap.Bullets = append(snap.Bullets, bulletState{Owner: b.owner, Pos: b.pos})
	}
	for _, pk := range s.pickups {
		snap.Pickups = append(snap.Pickups, pickupState{Kind: pk.kind, Pos: pk.pos, Active: pk.active})
	}
	for _, t := range s.teleporters {
		snap.Teleporters = append(snap.Teleporters, teleporterState{Pos: t.pos, Radius: t.radius})
	}
	for _, bn := range s.bouncers {
		snap.Bouncers = append(snap.Bouncers, bouncerState{Min: bn.min, Max: bn.max})
	}
	return snap
}
