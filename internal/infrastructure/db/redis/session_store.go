package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/pkg/sessioncodec"
)

// SessionStore keeps the encoded session record under a single Redis key.
// No TTL is set; validity is decided by the login window, not by Redis.
type SessionStore struct {
	client *redis.Client
	key    string
	codec  sessioncodec.Codec
	log    zerolog.Logger
}

// NewSessionStore wraps client. key is the well-known session key.
func NewSessionStore(client *redis.Client, key string, codec sessioncodec.Codec, log zerolog.Logger) *SessionStore {
	return &SessionStore{client: client, key: key, codec: codec, log: log}
}

func (s *SessionStore) Save(ctx context.Context, rec domain.SessionRecord) error {
	raw, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (domain.SessionRecord, bool) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("session load failed, treating as no session")
		}
		return domain.SessionRecord{}, false
	}

	rec, err := s.codec.Decode(raw)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("discarding malformed stored session")
		}
		if delErr := s.client.Del(ctx, s.key).Err(); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", s.key).Msg("failed to remove stored session")
		}
		return domain.SessionRecord{}, false
	}
	return rec, true
}

func (s *SessionStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
