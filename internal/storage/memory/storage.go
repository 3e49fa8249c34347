package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions map[model.SessionID]*storage.SessionRecord
	byRoom   map[model.RoomID][]model.SessionID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionID]*storage.SessionRecord),
		byRoom:   make(map[model.RoomID][]model.SessionID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// cloneRecord detaches a record from the store's copy. Records pass through
// here on both save and read so callers can never mutate shared state
// outside the store's lock.
func cloneRecord(rec *storage.SessionRecord) *storage.SessionRecord {
	cp := *rec
	if rec.Results != nil {
		cp.Results = append([]model.ResultEntry(nil), rec.Results...)
	}
	if rec.FinalSnapshot != nil {
		cp.FinalSnapshot = append(json.RawMessage(nil), rec.FinalSnapshot...)
	}
	return &cp
}

func (s *Storage) SaveSession(ctx context.Context, rec *storage.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[rec.ID]; !exists && rec.RoomID != "" {
		s.byRoom[rec.RoomID] = append(s.byRoom[rec.RoomID], rec.ID)
	}
	s.sessions[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Storage) ListSessions(ctx context.Context, roomID model.RoomID) ([]*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRoom[roomID]
	out := make([]*storage.SessionRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.sessions[id]; ok {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
