package report

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/openarcade/roomhost/internal/dependencies/clock"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
)

// StoragePersistence implements Persistence over the session-history store
type StoragePersistence struct {
	storage storage.Storage
	clock   clock.Clock
}

var _ Persistence = (*StoragePersistence)(nil)

// NewStoragePersistence creates a store-backed persistence collaborator
func NewStoragePersistence(store storage.Storage, clk clock.Clock) *StoragePersistence {
	return &StoragePersistence{storage: store, clock: clk}
}

// StartSession implements Persistence
func (p *StoragePersistence) StartSession(ctx context.Context, roomID model.RoomID, gameType model.GameType, hostRef string) (model.SessionID, error) {
	rec := &storage.SessionRecord{
		ID:        model.SessionID(uuid.NewString()),
		RoomID:    roomID,
		GameType:  gameType,
		HostRef:   hostRef,
		StartedAt: p.clock.Now(),
	}
	if err := p.storage.SaveSession(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// CompleteSession implements Persistence. A session that was never started
// (the start call failed or is still in flight) gets a fresh record so the
// results are not lost.
func (p *StoragePersistence) CompleteSession(ctx context.Context, id model.SessionID, results []model.ResultEntry, finalSnapshot any) error {
	var rec *storage.SessionRecord
	if id != "" {
		found, err := p.storage.GetSession(ctx, id)
		if err == nil {
			rec = found
		}
	}
	if rec == nil {
		rec = &storage.SessionRecord{
			ID:        model.SessionID(uuid.NewString()),
			StartedAt: p.clock.Now(),
		}
	}
	rec.CompletedAt = p.clock.Now()
	rec.Results = results
	if finalSnapshot != nil {
		if data, err := json.Marshal(finalSnapshot); err == nil {
			rec.FinalSnapshot = data
		}
	}
	return p.storage.SaveSession(ctx, rec)
}

// NopAttestation is the default attestation collaborator: it acknowledges
// every request with a locally generated reference. A real chain-backed
// implementation satisfies the same interface.
type NopAttestation struct{}

var _ Attestation = (*NopAttestation)(nil)

// Attest implements Attestation
func (NopAttestation) Attest(_ context.Context, _ AttestRequest) (AttestResult, error) {
	return AttestResult{OK: true, TxRef: "local-" + uuid.NewString()}, nil
}
