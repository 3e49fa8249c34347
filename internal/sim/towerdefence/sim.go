package towerdefence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
)

const enemyRadius = 14.0

// Input is a tower-defence command, not continuous control
type Input struct {
	Command   string `json:"command"` // build | upgrade | sell | startWave
	Spot      int    `json:"spot"`
	TowerType string `json:"towerType"`
	Tower     string `json:"tower"`
}

type participant struct {
	id        model.ParticipantID
	name      string
	walletRef string
	color     string
	kills     int
	spent     int
}

func (p *participant) view() model.ParticipantView {
	return model.ParticipantView{
		ID:          p.id,
		DisplayName: p.name,
		Color:       p.color,
		Score:       p.kills,
		Alive:       true,
		WalletRef:   p.walletRef,
	}
}

type tower struct {
	id          string
	owner       model.ParticipantID
	spot        int
	kind        string
	level       int
	spec        TowerSpec
	fireReadyAt time.Duration
	invested    int
}

type enemy struct {
	id      int
	hp      int
	maxHP   int
	speed   float64
	pos     sim.Vec2
	segment int     // index into path, current segment start
	along   float64 // distance travelled along the current segment
}

type projectile struct {
	pos      sim.Vec2
	speed    float64
	damage   int
	splash   float64
	owner    model.ParticipantID
	targetID int
}

// Simulation is the tower-defence variant. The world is shared, not
// per-participant: one path, one castle, one wallet.
type Simulation struct {
	tuning  Tuning
	logger  *slog.Logger
	palette sim.Palette
	events  sim.EventBuffer

	elapsed  time.Duration
	started  bool
	finished bool
	won      bool

	participants map[model.ParticipantID]*participant
	order        []model.ParticipantID

	path       []sim.Vec2
	spots      []sim.Vec2
	castleHP   int
	currency   int
	wave       int
	waveActive bool
	nextWaveAt time.Duration // auto-wave deadline, zero when unset

	// spawn queue for the active wave: sim-time offsets not yet spawned
	spawnQueue []time.Duration
	spawnHP    int

	towers      []*tower
	enemies     []*enemy
	projectiles []*projectile

	towerSeq int
	enemySeq int
}

var _ sim.Simulation = (*Simulation)(nil)

// New constructs a tower-defence simulation from room config
func New(cfg sim.Config) (sim.Simulation, error) {
	t := ParseTuning(cfg.Tuning)
	s := &Simulation{
		tuning:       t,
		logger:       cfg.Logger.With(slog.String("variant", "towerdefence")),
		participants: make(map[model.ParticipantID]*participant),
		castleHP:     t.CastleHP,
		currency:     t.StartCurrency,
	}
	s.buildWorld()
	return s, nil
}

// buildWorld lays the fixed enemy path and the build spots alongside it
func (s *Simulation) buildWorld() {
	s.path = []sim.Vec2{
		{X: 0, Y: 450},
		{X: 400, Y: 450},
		{X: 400, Y: 150},
		{X: 900, Y: 150},
		{X: 900, Y: 650},
		{X: 1400, Y: 650},
		{X: 1400, Y: 450},
		{X: 1600, Y: 450},
	}
	n := s.tuning.BuildSpots
	for i := 0; i < n; i++ {
		// spots alternate above and below the path's bounding line
		x := 200 + float64(i)*(1200/float64(n))
		y := 300.0
		if i%2 == 1 {
			y = 550.0
		}
		s.spots = append(s.spots, sim.Vec2{X: x, Y: y})
	}
}

// GameType implements sim.Simulation
func (s *Simulation) GameType() model.GameType { return model.GameTypeTowerDefence }

// AddParticipant implements sim.Simulation
func (s *Simulation) AddParticipant(id model.ParticipantID, displayName, walletRef string) (model.ParticipantView, error) {
	if p, ok := s.participants[id]; ok {
		return p.view(), nil
	}
	p := &participant{
		id:        id,
		name:      displayName,
		walletRef: walletRef,
		color:     s.palette.Next(),
	}
	s.participants[id] = p
	s.order = append(s.order, id)
	s.events.Push(model.Event{Type: model.EventParticipantJoined, Participant: id})
	return p.view(), nil
}

// RemoveParticipant implements sim.Simulation. Towers built by a departed
// participant keep defending; only the bookkeeping goes.
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

// ApplyInput implements sim.Simulation. Invalid commands are no-ops.
func (s *Simulation) ApplyInput(id model.ParticipantID, raw json.RawMessage) {
	p, ok := s.participants[id]
	if !ok || s.finished {
		return
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	switch in.Command {
	case "build":
		s.build(p, in.Spot, in.TowerType)
	case "upgrade":
		s.upgrade(p, in.Tower)
	case "sell":
		s.sell(in.Tower)
	case "startWave":
		s.startWave()
	}
}

// build debits the shared wallet and occupies a spot
func (s *Simulation) build(p *participant, spot int, towerType string) {
	if spot < 0 || spot >= len(s.spots) {
		return
	}
	spec, ok := towerSpecs[towerType]
	if !ok || s.currency < spec.Cost {
		return
	}
	for _, t := range s.towers {
		if t.spot == spot {
			return
		}
	}
	s.currency -= spec.Cost
	p.spent += spec.Cost
	s.towerSeq++
	s.towers = append(s.towers, &tower{
		id:       fmt.Sprintf("t-%d", s.towerSeq),
		owner:    p.id,
		spot:     spot,
		kind:     towerType,
		level:    1,
		spec:     spec,
		invested: spec.Cost,
	})
}

// upgradeCost grows with each level
func (s *Simulation) upgradeCost(t *tower) int {
	return t.spec.Cost * s.tuning.UpgradeCostPct * t.level / 100
}

// upgrade debits an increasing cost and strengthens stats
func (s *Simulation) upgrade(p *participant, id string) {
	t := s.towerByID(id)
	if t == nil {
		return
	}
	cost := s.upgradeCost(t)
	if s.currency < cost {
		return
	}
	s.currency -= cost
	p.spent += cost
	t.invested += cost
	t.level++
	t.spec.Damage = t.spec.Damage * 3 / 2
	t.spec.Range *= 1.1
	if t.spec.SplashRadius > 0 {
		t.spec.SplashRadius *= 1.1
	}
}

// sell credits a partial refund and frees the spot
func (s *Simulation) sell(id string) {
	for i, t := range s.towers {
		if t.id == id {
			s.currency += t.invested * s.tuning.SellRefundPct / 100
			s.towers = append(s.towers[:i], s.towers[i+1:]...)
			return
		}
	}
}

func (s *Simulation) towerByID(id string) *tower {
	for _, t := range s.towers {
		if t.id == id {
			return t
		}
	}
	return nil
}

// startWave enqueues the next wave. Rejected while a wave is in progress:
// wave counter and currency are unchanged.
func (s *Simulation) startWave() {
	if s.waveActive || s.finished {
		return
	}
	s.started = true
	s.wave++
	s.waveActive = true
	s.nextWaveAt = 0
	count := s.tuning.EnemyBaseCount + (s.wave-1)*s.tuning.EnemyPerWave
	s.spawnHP = s.tuning.EnemyBaseHP + (s.wave-1)*s.tuning.EnemyHPPerWave
	s.spawnQueue = s.spawnQueue[:0]
	for i := 0; i < count; i++ {
		s.spawnQueue = append(s.spawnQueue, s.elapsed+time.Duration(i)*s.tuning.SpawnStagger())
	}
}

// Advance implements sim.Simulation
func (s *Simulation) Advance(delta time.Duration) {
	if s.finished || delta <= 0 {
		return
	}
	s.elapsed += delta
	dt := delta.Seconds()

	s.spawnDue()
	s.advanceEnemies(dt)
	s.advanceTowers()
	s.advanceProjectiles(dt)
	s.checkWaveComplete()
	s.checkAutoWave()
}

// spawnDue releases any enemy whose stagger offset has elapsed
func (s *Simulation) spawnDue() {
	remaining := s.spawnQueue[:0]
	for _, at := range s.spawnQueue {
		if s.elapsed >= at {
			s.enemySeq++
			s.enemies = append(s.enemies, &enemy{
				id:    s.enemySeq,
				hp:    s.spawnHP,
				maxHP: s.spawnHP,
				speed: s.tuning.EnemySpeed,
				pos:   s.path[0],
			})
		} else {
			remaining = append(remaining, at)
		}
	}
	s.spawnQueue = remaining
}

// advanceEnemies walks each enemy along the polyline; reaching the end
// damages the castle
func (s *Simulation) advanceEnemies(dt float64) {
	kept := s.enemies[:0]
	for _, e := range s.enemies {
		travel := e.speed * dt
		for travel > 0 && e.segment < len(s.path)-1 {
			a := s.path[e.segment]
			b := s.path[e.segment+1]
			segLen := b.Sub(a).Len()
			left := segLen - e.along
			if travel < left {
				e.along += travel
				travel = 0
			} else {
				travel -= left
				e.segment++
				e.along = 0
			}
		}
		if e.segment >= len(s.path)-1 {
			// breached: damage the castle and despawn
			s.castleHP -= s.tuning.EnemyCastleDmg
			if s.castleHP <= 0 {
				s.castleHP = 0
				s.lose()
			}
			continue
		}
		a := s.path[e.segment]
		b := s.path[e.segment+1]
		e.pos = a.Add(b.Sub(a).Normalized().Scale(e.along))
		kept = append(kept, e)
	}
	s.enemies = kept
}

// advanceTowers lets each tower on cooldown fire at the nearest in-range
// live enemy
func (s *Simulation) advanceTowers() {
	for _, t := range s.towers {
		if s.elapsed < t.fireReadyAt {
			continue
		}
		target := s.nearestEnemy(s.spots[t.spot], t.spec.Range)
		if target == nil {
			continue
		}
		s.projectiles = append(s.projectiles, &projectile{
			pos:      s.spots[t.spot],
			speed:    t.spec.ProjectileSpeed,
			damage:   t.spec.Damage,
			splash:   t.spec.SplashRadius,
			owner:    t.owner,
			targetID: target.id,
		})
		t.fireReadyAt = s.elapsed + time.Duration(t.spec.FireCooldownMs)*time.Millisecond
	}
}

func (s *Simulation) nearestEnemy(from sim.Vec2, maxRange float64) *enemy {
	var best *enemy
	bestDist := maxRange
	for _, e := range s.enemies {
		d := e.pos.Sub(from).Len()
		if d <= bestDist {
			best = e
			bestDist = d
		}
	}
	return best
}

func (s *Simulation) enemyByID(id int) *enemy {
	for _, e := range s.enemies {
		if e.id == id {
			return e
		}
	}
	return nil
}

// advanceProjectiles moves each projectile toward its target's current
// position (re-aiming every tick, not ballistic) and applies damage on
// arrival
func (s *Simulation) advanceProjectiles(dt float64) {
	kept := s.projectiles[:0]
	for _, pr := range s.projectiles {
		target := s.enemyByID(pr.targetID)
		if target == nil {
			// target already dead or through; the projectile fizzles
			continue
		}
		toTarget := target.pos.Sub(pr.pos)
		step := pr.speed * dt
		if toTarget.Len() <= step+enemyRadius {
			s.impact(pr, target)
			continue
		}
		pr.pos = pr.pos.Add(toTarget.Normalized().Scale(step))
		kept = append(kept, pr)
	}
	s.projectiles = kept
}

// impact applies damage: single-target, or an area splash falling off
// linearly with distance
func (s *Simulation) impact(pr *projectile, target *enemy) {
	if pr.splash <= 0 {
		s.damage(target, pr.damage, pr.owner)
		return
	}
	center := target.pos
	for _, e := range append([]*enemy(nil), s.enemies...) {
		d := e.pos.Sub(center).Len()
		if d > pr.splash {
			continue
		}
		dmg := int(math.Round(float64(pr.damage) * (1 - d/pr.splash)))
		if e == target && dmg < 1 {
			dmg = 1
		}
		if dmg > 0 {
			s.damage(e, dmg, pr.owner)
		}
	}
}

func (s *Simulation) damage(e *enemy, dmg int, by model.ParticipantID) {
	e.hp -= dmg
	if e.hp > 0 {
		return
	}
	for i, live := range s.enemies {
		if live == e {
			s.enemies = append(s.enemies[:i], s.enemies[i+1:]...)
			break
		}
	}
	s.currency += s.tuning.EnemyReward
	if p, ok := s.participants[by]; ok {
		p.kills++
	}
}

// checkWaveComplete grants the bonus and returns to the between-waves state
// once the spawn queue is empty and no enemies remain
func (s *Simulation) checkWaveComplete() {
	if !s.waveActive || len(s.spawnQueue) > 0 || len(s.enemies) > 0 {
		return
	}
	s.waveActive = false
	s.currency += s.tuning.WaveBonus
	if s.wave >= s.tuning.FinalWave {
		s.win()
		return
	}
	if s.tuning.AutoWave {
		s.nextWaveAt = s.elapsed + s.tuning.AutoWaveGrace()
	}
}

func (s *Simulation) checkAutoWave() {
	if s.nextWaveAt > 0 && s.elapsed >= s.nextWaveAt && !s.waveActive && !s.finished {
		s.startWave()
	}
}

// lose is the one-way transition when the castle falls
func (s *Simulation) lose() {
	if s.finished {
		return
	}
	s.finished = true
	s.won = false
	s.events.Push(model.Event{Type: model.EventGameOver, Data: s.Results()})
}

func (s *Simulation) win() {
	if s.finished {
		return
	}
	s.finished = true
	s.won = true
	s.events.Push(model.Event{Type: model.EventGameOver, Data: s.Results()})
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

// Results implements sim.Simulation: ranked by enemy kills attributed to the
// towers each participant built
func (s *Simulation) Results() []model.ResultEntry {
	ps := make([]*participant, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.participants[id])
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].kills > ps[j].kills
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
				"kills":        float64(p.kills),
				"spent":        float64(p.spent),
				"wavesCleared": float64(s.wavesCleared()),
				"won":          boolToFloat(s.won),
			},
		}
	}
	return out
}

func (s *Simulation) wavesCleared() int {
	if s.waveActive {
		return s.wave - 1
	}
	return s.wave
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// DrainEvents implements sim.Simulation
func (s *Simulation) DrainEvents() []model.Event {
	return s.events.Drain()
}

// Snapshot shapes

type towerState struct {
	ID    string              `json:"id"`
	Owner model.ParticipantID `json:"owner"`
	Spot  int                 `json:"spot"`
	Kind  string              `json:"kind"`
	Level int                 `json:"level"`
	Pos   sim.Vec2            `json:"pos"`
}

type enemyState struct {
	ID    int      `json:"id"`
	Pos   sim.Vec2 `json:"pos"`
	HP    int      `json:"hp"`
	MaxHP int      `json:"maxHp"`
}

type projectileState struct {
	Pos sim.Vec2 `json:"pos"`
}

// Snapshot is the tower-defence wire state
type Snapshot struct {
	Status       model.RoomStatus        `json:"status"`
	CastleHP     int                     `json:"castleHp"`
	Currency     int                     `json:"currency"`
	Wave         int                     `json:"wave"`
	WaveActive   bool                    `json:"waveActive"`
	Won          bool                    `json:"won"`
	Path         []sim.Vec2              `json:"path"`
	Spots        []sim.Vec2              `json:"spots"`
	Participants []model.ParticipantView `json:"participants"`
	Towers       []towerState            `json:"towers"`
	Enemies      []enemyState            `json:"enemies"`
	Projectiles  []projectileState       `json:"projectiles"`
}

// Snapshot implements sim.Simulation
func (s *Simulation) Snapshot() any {
	snap := Snapshot{
		Status:     s.Status(),
		CastleHP:   s.castleHP,
		Currency:   s.currency,
		Wave:       s.wave,
		WaveActive: s.waveActive,
		Won:        s.won,
		Path:       s.path,
		Spots:      s.spots,
	}
	for _, id := range s.order {
		snap.Participants = append(snap.Participants, s.participants[id].view())
	}
	for _, t := range s.towers {
		snap.Towers = append(snap.Towers, towerState{
			ID:    t.id,
			Owner: t.owner,
			Spot:  t.spot,
			Kind:  t.kind,
			Level: t.level,
			Pos:   s.spots[t.spot],
		})
	}
	for _, e := range s.enemies {
		snap.Enemies = append(snap.Enemies, enemyState{ID: e.id, Pos: e.pos, HP: e.hp, MaxHP: e.maxHP})
	}
	for _, pr := range s.projectiles {
		snap.Projectiles = append(snap.Projectiles, projectileState{Pos: pr.pos})
	}
	return snap
}
