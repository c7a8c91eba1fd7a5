package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"email-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "quiz:session:"

// SessionStore is a Redis implementation of app.SessionStore. Each token is
// a key with a per-key TTL matching the session expiry, so Redis itself
// enforces the 24-hour invalidation and PurgeExpired has nothing to sweep.
type SessionStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, clock: time.Now}
}

func (s *SessionStore) Upsert(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := session.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.Token, raw, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, bool, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	session.Token = token
	return session, true, nil
}

// PurgeExpired is a no-op: expiry is delegated to Redis per-key TTLs.
func (s *SessionStore) PurgeExpired(_ context.Context, _ time.Time) error {
	return nil
}

func (s *SessionStore) ResetAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
