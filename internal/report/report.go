package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/openarcade/roomhost/internal/model"
)

// Persistence records session lifecycles. Called best-effort: the engine
// never retries failures and never blocks gameplay on the result.
type Persistence interface {
	StartSession(ctx context.Context, roomID model.RoomID, gameType model.GameType, hostRef string) (model.SessionID, error)
	CompleteSession(ctx context.Context, id model.SessionID, results []model.ResultEntry, finalSnapshot any) error
}

// AttestRequest is sent for each finished participant that carries an
// external wallet reference
type AttestRequest struct {
	WalletRef string
	Score     int
	Metrics   map[string]float64
	GameType  model.GameType
}

// AttestResult carries the collaborator's outcome and opaque transaction ref
type AttestResult struct {
	OK    bool
	TxRef string
}

// Attestation anchors final scores externally for wallet-holding participants
type Attestation interface {
	Attest(ctx context.Context, req AttestRequest) (AttestResult, error)
}

// callTimeout bounds each collaborator call
const callTimeout = 10 * time.Second

// Dispatcher fires collaborator calls on their own goroutines so a slow
// external service never delays a room's ticks. Failures are logged and
// otherwise ignored; the live game is the source of truth.
type Dispatcher struct {
	persistence Persistence
	attestation Attestation
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher over the given collaborators
func NewDispatcher(p Persistence, a Attestation, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		attestation: a,
		logger:      logger.With(slog.String("component", "report")),
	}
}

// StartSession records a session beginning; onStarted runs with the new
// session id if the call succeeds
func (d *Dispatcher) StartSession(roomID model.RoomID, gameType model.GameType, hostRef string, onStarted func(model.SessionID)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		id, err := d.persistence.StartSession(ctx, roomID, gameType, hostRef)
		if err != nil {
			d.logger.Error("start session failed",
				slog.String("room", string(roomID)),
				slog.String("error", err.Error()))
			return
		}
		if onStarted != nil {
			onStarted(id)
		}
	}()
}

// CompleteSession records a session's final results
func (d *Dispatcher) CompleteSession(id model.SessionID, results []model.ResultEntry, finalSnapshot any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := d.persistence.CompleteSession(ctx, id, results, finalSnapshot); err != nil {
			d.logger.Error("complete session failed",
				slog.String("session", string(id)),
				slog.String("error", err.Error()))
		}
	}()
}

// Attest anchors one participant's result; onResult runs with the opaque
// transaction reference on success
func (d *Dispatcher) Attest(req AttestRequest, onResult func(txRef string)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		res, err := d.attestation.Attest(ctx, req)
		if err != nil {
			d.logger.Error("attestation failed",
				slog.String("wallet", req.WalletRef),
				slog.String("error", err.Error()))
			return
		}
		if res.OK && onResult != nil {
			onResult(res.TxRef)
		}
	}()
}
