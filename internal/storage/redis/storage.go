package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveSession(ctx context.Context, rec *storage.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	known, err := s.client.Exists(ctx, sessionKey(rec.ID)).Result()
	if err != nil {
		return err
	}

	// Completed sessions expire with the configured TTL; live ones persist
	var ttl time.Duration
	if rec.Completed() {
		ttl = s.cfg.SessionTTL
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(rec.ID), data, ttl)
	if known == 0 && rec.RoomID != "" {
		pipe.LPush(ctx, roomSessionsKey(rec.RoomID), string(rec.ID))
		pipe.Expire(ctx, roomSessionsKey(rec.RoomID), s.cfg.SessionTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*storage.SessionRecord, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var rec storage.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) ListSessions(ctx context.Context, roomID model.RoomID) ([]*storage.SessionRecord, error) {
	ids, err := s.client.LRange(ctx, roomSessionsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*storage.SessionRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetSession(ctx, model.SessionID(id))
		if err != nil {
			if errors.Is(err, model.ErrSessionNotFound) {
				// expired record still indexed
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
