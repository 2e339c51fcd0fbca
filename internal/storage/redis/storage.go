package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

// Storage is a Redis-backed session store.
// Records expire through Redis TTLs, so sessions survive restarts and are shared
// between gateway instances.
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
var _ storage.SessionStore = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := lifetime(session.CreatedAt, session.ExpiresAt, s.cfg.SessionTTL)
	return s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Pending authorization operations

func (s *Storage) SavePendingAuth(ctx context.Context, pending *model.PendingAuth) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}

	ttl := lifetime(pending.CreatedAt, pending.ExpiresAt, s.cfg.PendingAuthTTL)
	return s.client.Set(ctx, pendingAuthKey(pending.State), data, ttl).Err()
}

func (s *Storage) TakePendingAuth(ctx context.Context, state string) (*model.PendingAuth, error) {
	// GETDEL so a state value can only be redeemed once
	data, err := s.client.GetDel(ctx, pendingAuthKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPendingAuthNotFound
		}
		return nil, err
	}

	var pending model.PendingAuth
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// lifetime derives a key TTL from a record's own creation and expiry times
func lifetime(createdAt, expiresAt time.Time, fallback time.Duration) time.Duration {
	if ttl := expiresAt.Sub(createdAt); ttl > 0 {
		return ttl
	}
	return fallback
}
