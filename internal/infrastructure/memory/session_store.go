// Package memory holds in-process adapters used in development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/pkg/sessioncodec"
)

// SessionStore keeps the encoded session value in memory. It goes through the
// same codec as the durable stores so decoding rules are identical.
type SessionStore struct {
	mu    sync.Mutex
	raw   string
	set   bool
	codec sessioncodec.Codec
	log   zerolog.Logger
}

func NewSessionStore(codec sessioncodec.Codec, log zerolog.Logger) *SessionStore {
	return &SessionStore{codec: codec, log: log}
}

func (s *SessionStore) Save(_ context.Context, rec domain.SessionRecord) error {
	raw, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw, s.set = raw, true
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Load(_ context.Context) (domain.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return domain.SessionRecord{}, false
	}
	rec, err := s.codec.Decode(s.raw)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Warn().Err(err).Msg("discarding malformed stored session")
		}
		s.raw, s.set = "", false
		return domain.SessionRecord{}, false
	}
	return rec, true
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.raw, s.set = "", false
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Ping(context.Context) error { return nil }

// SetRaw places an arbitrary value under the session key.
func (s *SessionStore) SetRaw(raw string) {
	s.mu.Lock()
	s.raw, s.set = raw, true
	s.mu.Unlock()
}

// Raw returns the stored value and whether one is present.
func (s *SessionStore) Raw() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.set
}
