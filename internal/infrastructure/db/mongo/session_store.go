package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/pkg/sessioncodec"
)

const sessionsCollection = "sessions"

// SessionStore keeps the encoded session record as one document keyed by the
// well-known session key.
type SessionStore struct {
	coll  *mongo.Collection
	key   string
	codec sessioncodec.Codec
	log   zerolog.Logger
}

func NewSessionStore(db *mongo.Database, key string, codec sessioncodec.Codec, log zerolog.Logger) *SessionStore {
	return &SessionStore{coll: db.Collection(sessionsCollection), key: key, codec: codec, log: log}
}

type sessionDoc struct {
	Key       string `bson:"_id"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *SessionStore) Save(ctx context.Context, rec domain.SessionRecord) error {
	raw, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sessionDoc{Key: s.key, Value: raw, UpdatedAt: time.Now().UTC().Unix()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": s.key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: mongo replace: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (domain.SessionRecord, bool) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("session load failed, treating as no session")
		}
		return domain.SessionRecord{}, false
	}

	rec, err := s.codec.Decode(doc.Value)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("discarding malformed stored session")
		}
		if _, delErr := s.coll.DeleteOne(ctx, bson.M{"_id": s.key}); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", s.key).Msg("failed to remove stored session")
		}
		return domain.SessionRecord{}, false
	}
	return rec, true
}

// Clear deletes the session document. DeleteOne on a missing document is a
// no-op, which keeps Clear idempotent.
func (s *SessionStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.key}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
