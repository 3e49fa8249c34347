package shooter

import (
	"time"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
)

// effectKind is a timed status effect on a participant
type effectKind string

const (
	effectSpeedBoost effectKind = "speed_boost"
	effectShield     effectKind = "shield"
)

// speedBoostFactor multiplies move speed while the boost is active
const speedBoostFactor = 1.6

// botState is the bot AI's finite-state machine phase
type botState string

const (
	botWander botState = "wander"
	botChase  botState = "chase"
)

// participant is one shooter entity, player-controlled or bot-controlled.
// All timestamps are simulation time (accumulated deltas), keeping Advance
// deterministic for a given input sequence.
type participant struct {
	id        model.ParticipantID
	name      string
	walletRef string
	color     string
	isBot     bool

	pos  sim.Vec2
	move sim.Vec2 // clamped movement input
	aim  sim.Vec2 // aim direction, independent of movement

	health int
	lives  int
	kills  int
	deaths int

	alive    bool
	gameOver bool

	fireReadyAt     time.Duration
	respawnAt       time.Duration
	teleportReadyAt time.Duration

	// effect expiry instants in sim time
	effects map[effectKind]time.Duration

	// bot AI
	state       botState
	wanderDir   sim.Vec2
	retargetAt  time.Duration
	targetID    model.ParticipantID
}

// effectActive reports whether the effect is unexpired at the given instant
func (p *participant) effectActive(kind effectKind, now time.Duration) bool {
	exp, ok := p.effects[kind]
	return ok && now < exp
}

// view projects to the wire shape
func (p *participant) view() model.ParticipantView {
	return model.ParticipantView{
		ID:          p.id,
		DisplayName: p.name,
		Color:       p.color,
		Score:       p.kills,
		Alive:       p.alive,
		GameOver:    p.gameOver,
		WalletRef:   p.walletRef,
	}
}

// bullet travels in a straight line, wraps at world boundaries and expires
// by TTL or on impact
type bullet struct {
	owner     model.ParticipantID
	pos       sim.Vec2
	vel       sim.Vec2
	expiresAt time.Duration
}

// pickupKind maps to the effect a pickup grants
type pickupKind string

const (
	pickupSpeed  pickupKind = "speed"
	pickupShield pickupKind = "shield"
)

// pickup is a timed world object; once collected it respawns after a fixed
// interval
type pickup struct {
	kind      pickupKind
	pos       sim.Vec2
	active    bool
	respawnAt time.Duration
}

// teleporter is one end of a linked pair
type teleporter struct {
	pos    sim.Vec2
	twin   int // index of the paired teleporter
	radius float64
}

// bouncer is an axis-aligned box that reflects bullet velocity along the
// dominant axis of impact
type bouncer struct {
	min sim.Vec2
	max sim.Vec2
}

func (b bouncer) contains(p sim.Vec2) bool {
	return p.X >= b.min.X && p.X <= b.max.X && p.Y >= b.min.Y && p.Y <= b.max.Y
}

// reflect flips the bullet velocity along the axis with the deeper
// penetration into the box
func (b bouncer) reflect(pos, vel sim.Vec2) sim.Vec2 {
	cx := (b.min.X + b.max.X) / 2
	cy := (b.min.Y + b.max.Y) / 2
	dx := (b.max.X-b.min.X)/2 - abs(pos.X-cx)
	dy := (b.max.Y-b.min.Y)/2 - abs(pos.Y-cy)
	if dx < dy {
		return sim.Vec2{X: -vel.X, Y: vel.Y}
	}
	return sim.Vec2{X: vel.X, Y: -vel.Y}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
