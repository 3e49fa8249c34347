package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarcade/roomhost/internal/api/apierr"
	"github.com/openarcade/roomhost/internal/api/response"
	"github.com/openarcade/roomhost/internal/factory"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
	"github.com/openarcade/roomhost/internal/testutil"
)

// testServer wires a full app over in-memory storage and a mock clock, so
// no room ever ticks unless a test drives it
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(app.Shutdown)

	return &testServer{
		handler: app.Router(testutil.NopLogger()),
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createRoom(t *testing.T, id, gameType string, config map[string]any) response.Room {
	t.Helper()
	body := map[string]any{"id": id, "gameType": gameType}
	if config != nil {
		body["config"] = config
	}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	return room
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "arena-1", "shooter", map[string]any{
		"name":            "Friday Arena",
		"maxParticipants": 4,
	})

	assert.Equal(t, "arena-1", room.ID)
	assert.Equal(t, "Friday Arena", room.Name)
	assert.Equal(t, "shooter", room.GameType)
	assert.Equal(t, "waiting", room.Status)
	assert.Equal(t, 0, room.Participants)
	assert.Equal(t, 4, room.Capacity)
	assert.False(t, room.HasPassword)
}

func TestCreateRoomDefaults(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "quiz-night", "quiz", nil)

	assert.Equal(t, "quiz-night", room.Name, "name falls back to the id")
	assert.Equal(t, 8, room.Capacity)
}

func TestCreateRoomWithPassword(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "private-1", "racer", map[string]any{"password": "hunter2"})

	assert.True(t, room.HasPassword)
}

func TestCreateRoomDuplicateID(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "arena-1", "shooter", nil)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"id": "arena-1", "gameType": "quiz"})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, model.CodeDuplicateRoom, errorCode(t, rr))
}

func TestCreateRoomUnknownGameType(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"id": "r1", "gameType": "chess"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, model.CodeUnknownGameType, errorCode(t, rr))
}

func TestCreateRoomMissingID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"gameType": "shooter"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rr))
}

func TestCreateRoomMissingGameType(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]any{"id": "r1"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRoomInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", bytes.NewBufferString("{broken"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRooms(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.RoomList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Rooms)

	ts.createRoom(t, "arena-1", "shooter", nil)
	ts.app.MockClock.Advance(time.Minute)
	ts.createRoom(t, "arena-2", "towerdefence", nil)

	rr = ts.request(http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "arena-2", list.Rooms[0].ID, "newest room lists first")
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "arena-1", "shooter", nil)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/arena-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "arena-1", room.ID)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/missing", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, model.CodeRoomNotFound, errorCode(t, rr))
}

func TestGetSession(t *testing.T) {
	ts := newTestServer(t)
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := &storage.SessionRecord{
		ID:          "session-1",
		RoomID:      "arena-1",
		GameType:    model.GameTypeShooter,
		StartedAt:   started,
		CompletedAt: started.Add(5 * time.Minute),
		Results:     []model.ResultEntry{{ParticipantRef: "p1", DisplayName: "Alice", Score: 7, Rank: 1}},
	}
	require.NoError(t, ts.app.Storage.SaveSession(context.Background(), rec))

	rr := ts.request(http.MethodGet, "/api/v1/sessions/session-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var session response.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, "arena-1", session.RoomID)
	require.NotNil(t, session.CompletedAt)
	require.Len(t, session.Results, 1)
	assert.Equal(t, "Alice", session.Results[0].DisplayName)
}

func TestGetSessionNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/missing", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, rr))
}

func TestListRoomSessions(t *testing.T) {
	ts := newTestServer(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ts.app.Storage.SaveSession(context.Background(), &storage.SessionRecord{
		ID: "session-1", RoomID: "arena-1", GameType: model.GameTypeQuiz, StartedAt: base,
	}))
	require.NoError(t, ts.app.Storage.SaveSession(context.Background(), &storage.SessionRecord{
		ID: "session-2", RoomID: "arena-1", GameType: model.GameTypeQuiz, StartedAt: base.Add(time.Hour),
	}))

	rr := ts.request(http.MethodGet, "/api/v1/rooms/arena-1/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.SessionList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, "session-2", list.Sessions[0].ID, "most recent session lists first")
}

func TestListRoomSessionsEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/never-played/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.SessionList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Sessions)
}
