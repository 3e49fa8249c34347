package quiz

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/random"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/sim"
)

// Phase is the quiz round state machine phase
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseRoundActive  Phase = "round_active"
	PhaseRoundResults Phase = "round_results"
	PhaseFinished     Phase = "game_finished"
)

// resultsDuration is how long the per-round results are shown
const resultsDuration = 4 * time.Second

// correctBaseScore and speedBonusMax shape per-answer scoring: a correct
// answer always scores the base, plus a bonus scaled by answer speed
const (
	correctBaseScore = 100
	speedBonusMax    = 100
)

// Tuning holds the quiz variant's room-level knobs
type Tuning struct {
	Rounds               int `json:"rounds"`
	BaseTimePerRound     int `json:"baseTimePerRound"`     // seconds
	TimeDecreasePerRound int `json:"timeDecreasePerRound"` // seconds
	MinTimePerRound      int `json:"minTimePerRound"`      // seconds
}

// DefaultTuning returns the stock quiz setup
func DefaultTuning() Tuning {
	return Tuning{
		Rounds:               8,
		BaseTimePerRound:     20,
		TimeDecreasePerRound: 2,
		MinTimePerRound:      10,
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
	if in.Rounds > 0 {
		t.Rounds = in.Rounds
	}
	if in.BaseTimePerRound > 0 {
		t.BaseTimePerRound = in.BaseTimePerRound
	}
	if in.TimeDecreasePerRound >= 0 {
		t.TimeDecreasePerRound = in.TimeDecreasePerRound
	}
	if in.MinTimePerRound > 0 {
		t.MinTimePerRound = in.MinTimePerRound
	}
	return t
}

// RoundDuration computes round k's (1-based) timer: it shortens
// monotonically with round number, floored at the configured minimum
func (t Tuning) RoundDuration(k int) time.Duration {
	secs := t.BaseTimePerRound - t.TimeDecreasePerRound*(k-1)
	if secs < t.MinTimePerRound {
		secs = t.MinTimePerRound
	}
	return time.Duration(secs) * time.Second
}

// Input is the quiz wire input: a start command from the host or an answer
// index. Out-of-range answers are clamped.
type Input struct {
	Command string `json:"command,omitempty"` // "start"
	Answer  *int   `json:"answer,omitempty"`
}

type participant struct {
	id        model.ParticipantID
	name      string
	walletRef string
	color     string
	score     int
	correct   int

	// per-round answer bookkeeping
	answered   bool
	answer     int
	answeredAt time.Duration
}

func (p *participant) view() model.ParticipantView {
	return model.ParticipantView{
		ID:          p.id,
		DisplayName: p.name,
		Color:       p.color,
		Score:       p.score,
		Alive:       true,
		WalletRef:   p.walletRef,
	}
}

// Simulation is the quiz variant: a round-based state machine rather than a
// physics world
type Simulation struct {
	tuning  Tuning
	rng     random.Random
	logger  *slog.Logger
	palette sim.Palette
	events  sim.EventBuffer

	elapsed time.Duration
	phase   Phase

	participants map[model.ParticipantID]*participant
	order        []model.ParticipantID
	hostID       model.ParticipantID

	questions    []question
	round        int // 1-based, 0 in lobby
	phaseEndsAt  time.Duration
	roundStarted time.Duration
}

var _ sim.Simulation = (*Simulation)(nil)

// New constructs a quiz simulation from room config
func New(cfg sim.Config) (sim.Simulation, error) {
	t := ParseTuning(cfg.Tuning)
	s := &Simulation{
		tuning:       t,
		rng:          cfg.Random,
		logger:       cfg.Logger.With(slog.String("variant", "quiz")),
		phase:        PhaseLobby,
		participants: make(map[model.ParticipantID]*participant),
	}
	s.questions = s.drawQuestions(t.Rounds)
	return s, nil
}

// drawQuestions shuffles the bank and takes the first n, recycling when the
// bank is smaller than the round count
func (s *Simulation) drawQuestions(n int) []question {
	shuffled := append([]question(nil), bank...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	out := make([]question, n)
	for i := 0; i < n; i++ {
		out[i] = shuffled[i%len(shuffled)]
	}
	return out
}

// GameType implements sim.Simulation
func (s *Simulation) GameType() model.GameType { return model.GameTypeQuiz }

// AddParticipant implements sim.Simulation. The first participant becomes
// the host, who alone can start the game.
func (s *Simulation) AddParticipant(id model.ParticipantID, displayName, walletRef string) (model.ParticipantView, error) {
	if p, ok := s.participants[id]; ok {
		return p.view(), nil
	}
	p := &participant{
		id:        id,
		name:      displayName,
		walletRef: walletRef,
		color:     s.palette.Next(),
		answered:  s.phase == PhaseRoundActive, // skip the in-flight round
	}
	s.participants[id] = p
	s.order = append(s.order, id)
	if s.hostID == "" {
		s.hostID = id
	}
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
	if s.hostID == id && len(s.order) > 0 {
		s.hostID = s.order[0]
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
	if !ok || s.phase == PhaseFinished {
		return
	}
	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return
	}
	if in.Command == "start" && s.phase == PhaseLobby && id == s.hostID && len(s.order) > 0 {
		s.beginRound(1)
		s.events.Push(model.Event{Type: model.EventGameStarted})
		return
	}
	if in.Answer != nil && s.phase == PhaseRoundActive && !p.answered {
		q := s.questions[s.round-1]
		a := *in.Answer
		// clamp rather than reject
		if a < 0 {
			a = 0
		}
		if a >= len(q.Options) {
			a = len(q.Options) - 1
		}
		p.answered = true
		p.answer = a
		p.answeredAt = s.elapsed
	}
}

func (s *Simulation) beginRound(k int) {
	s.round = k
	s.phase = PhaseRoundActive
	s.roundStarted = s.elapsed
	s.phaseEndsAt = s.elapsed + s.tuning.RoundDuration(k)
	for _, p := range s.participants {
		p.answered = false
		p.answer = -1
	}
}

// Advance implements sim.Simulation: quiz timers are the only thing that
// moves here
func (s *Simulation) Advance(delta time.Duration) {
	if delta <= 0 {
		return
	}
	s.elapsed += delta

	switch s.phase {
	case PhaseRoundActive:
		if s.allAnswered() || s.elapsed >= s.phaseEndsAt {
			s.scoreRound()
			s.phase = PhaseRoundResults
			s.phaseEndsAt = s.elapsed + resultsDuration
		}
	case PhaseRoundResults:
		if s.elapsed >= s.phaseEndsAt {
			if s.round >= s.tuning.Rounds {
				// terminal: a finished game is not resumable
				s.phase = PhaseFinished
				s.events.Push(model.Event{Type: model.EventGameOver, Data: s.Results()})
			} else {
				s.beginRound(s.round + 1)
			}
		}
	}
}

func (s *Simulation) allAnswered() bool {
	if len(s.participants) == 0 {
		return false
	}
	for _, p := range s.participants {
		if !p.answered {
			return false
		}
	}
	return true
}

// scoreRound awards the base score plus a speed bonus scaled by how much of
// the round timer was left when the answer landed
func (s *Simulation) scoreRound() {
	q := s.questions[s.round-1]
	total := s.tuning.RoundDuration(s.round)
	for _, p := range s.participants {
		if !p.answered || p.answer != q.Correct {
			continue
		}
		p.correct++
		used := p.answeredAt - s.roundStarted
		remaining := float64(total-used) / float64(total)
		if remaining < 0 {
			remaining = 0
		}
		p.score += correctBaseScore + int(float64(speedBonusMax)*remaining)
	}
}

// Status implements sim.Simulation
func (s *Simulation) Status() model.RoomStatus {
	switch s.phase {
	case PhaseLobby:
		return model.RoomStatusWaiting
	case PhaseFinished:
		return model.RoomStatusFinished
	default:
		return model.RoomStatusPlaying
	}
}

// Results implements sim.Simulation
func (s *Simulation) Results() []model.ResultEntry {
	ps := make([]*participant, 0, len(s.order))
	for _, id := range s.order {
		ps = append(ps, s.participants[id])
	}
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].score > ps[j].score
	})
	out := make([]model.ResultEntry, len(ps))
	for i, p := range ps {
		out[i] = model.ResultEntry{
			ParticipantRef: string(p.id),
			DisplayName:    p.name,
			Score:          p.score,
			Rank:           i + 1,
			WalletRef:      p.walletRef,
			Metrics: map[string]float64{
				"correct": float64(p.correct),
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

type playerState struct {
	model.ParticipantView
	Answered bool `json:"answered"`
	Correct  int  `json:"correct"`
}

// Snapshot is the quiz wire state. CorrectIndex is only populated during the
// results phase; the active question never reveals it.
type Snapshot struct {
	Phase        Phase               `json:"phase"`
	Round        int                 `json:"round"`
	Rounds       int                 `json:"rounds"`
	Host         model.ParticipantID `json:"host"`
	Question     string              `json:"question,omitempty"`
	Options      []string            `json:"options,omitempty"`
	CorrectIndex *int                `json:"correctIndex,omitempty"`
	RemainingMs  int64               `json:"remainingMs"`
	Players      []playerState       `json:"players"`
}

// Snapshot implements sim.Simulation
func (s *Simulation) Snapshot() any {
	snap := Snapshot{
		Phase:  s.phase,
		Round:  s.round,
		Rounds: s.tuning.Rounds,
		Host:   s.hostID,
	}
	if s.phase == PhaseRoundActive || s.phase == PhaseRoundResults {
		q := s.questions[s.round-1]
		snap.Question = q.Text
		snap.Options = q.Options
		remaining := s.phaseEndsAt - s.elapsed
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingMs = remaining.Milliseconds()
		if s.phase == PhaseRoundResults {
			correct := q.Correct
			snap.CorrectIndex = &correct
		}
	}
	for _, id := range s.order {
		p := s.participants[id]
		snap.Players = append(snap.Players, playerState{
			ParticipantView: p.view(),
			Answered:        p.answered,
			Correct:         p.correct,
		})
	}
	return snap
}
