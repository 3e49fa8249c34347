package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestSaveAndGetSession() {
	rec := &storage.SessionRecord{
		ID:        "session-1",
		RoomID:    "room-1",
		GameType:  model.GameTypeRacer,
		HostRef:   "host-1",
		StartedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.storage.SaveSession(s.ctx, rec)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(rec.ID, retrieved.ID)
	s.Equal(rec.RoomID, retrieved.RoomID)
	s.Equal(rec.GameType, retrieved.GameType)
	s.False(retrieved.Completed())
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestCompleteSessionPreservesResults() {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := &storage.SessionRecord{ID: "session-1", RoomID: "room-1", StartedAt: started}
	s.Require().NoError(s.storage.SaveSession(s.ctx, rec))

	rec.CompletedAt = started.Add(10 * time.Minute)
	rec.Results = []model.ResultEntry{
		{ParticipantRef: "p1", DisplayName: "Alice", Score: 42, Rank: 1},
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, rec))

	retrieved, err := s.storage.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.True(retrieved.Completed())
	s.Require().Len(retrieved.Results, 1)
	s.Equal("Alice", retrieved.Results[0].DisplayName)
}

func (s *StorageSuite) TestLiveSessionNeverExpires() {
	rec := &storage.SessionRecord{ID: "session-1", RoomID: "room-1", StartedAt: time.Now()}
	s.Require().NoError(s.storage.SaveSession(s.ctx, rec))

	s.mini.FastForward(48 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "session-1")
	s.NoError(err)
}

func (s *StorageSuite) TestCompletedSessionExpiresWithTTL() {
	rec := &storage.SessionRecord{
		ID:          "session-1",
		RoomID:      "room-1",
		StartedAt:   time.Now(),
		CompletedAt: time.Now(),
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, rec))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.ctx, "session-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestListSessionsNewestFirst() {
	older := &storage.SessionRecord{ID: "session-1", RoomID: "room-1", StartedAt: time.Now()}
	newer := &storage.SessionRecord{ID: "session-2", RoomID: "room-1", StartedAt: time.Now()}
	s.Require().NoError(s.storage.SaveSession(s.ctx, older))
	s.Require().NoError(s.storage.SaveSession(s.ctx, newer))

	sessions, err := s.storage.ListSessions(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("session-2"), sessions[0].ID)
	s.Equal(model.SessionID("session-1"), sessions[1].ID)
}

func (s *StorageSuite) TestListSessionsSkipsExpiredRecords() {
	completed := &storage.SessionRecord{
		ID:          "session-1",
		RoomID:      "room-1",
		StartedAt:   time.Now(),
		CompletedAt: time.Now(),
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, completed))

	// a later save refreshes the room index, so the index outlives the
	// completed record's TTL
	s.mini.FastForward(45 * time.Minute)
	live := &storage.SessionRecord{ID: "session-2", RoomID: "room-1", StartedAt: time.Now()}
	s.Require().NoError(s.storage.SaveSession(s.ctx, live))
	s.mini.FastForward(30 * time.Minute)

	sessions, err := s.storage.ListSessions(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(model.SessionID("session-2"), sessions[0].ID)
}

func (s *StorageSuite) TestListSessionsUnknownRoomEmpty() {
	sessions, err := s.storage.ListSessions(s.ctx, "nope")
	s.Require().NoError(err)
	s.Empty(sessions)
}
