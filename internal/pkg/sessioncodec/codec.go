// Package sessioncodec converts a session record to and from the single string
// value kept under the well-known session key.
package sessioncodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/pkg/schema"
)

// Codec encodes session records. Decode returns domain.ErrNoSession for an
// empty value and domain.ErrDeserialization for anything it cannot trust.
type Codec interface {
	Encode(rec domain.SessionRecord) (string, error)
	Decode(raw string) (domain.SessionRecord, error)
}

// New returns the signed codec when secret is set and the plain JSON codec
// otherwise.
func New(secret string) Codec {
	if secret == "" {
		return JSON{}
	}
	return NewSigned(secret)
}

// wireRecord is the persisted layout: identity plus epoch-millisecond login time.
type wireRecord struct {
	User      *domain.Identity `json:"user"`
	LoginTime int64            `json:"login_time"`
}

// absent reports values that mean "nothing stored". "undefined" is what a
// failed serialization used to leave behind.
func absent(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || s == "undefined" || s == "null"
}

func fromWire(w wireRecord) (domain.SessionRecord, error) {
	if w.User == nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: missing user", domain.ErrDeserialization)
	}
	if w.LoginTime <= 0 {
		return domain.SessionRecord{}, fmt.Errorf("%w: missing login time", domain.ErrDeserialization)
	}
	if err := schema.Identity(*w.User); err != nil {
		return domain.SessionRecord{}, err
	}
	return domain.SessionRecord{
		Identity:  *w.User,
		LoginTime: time.UnixMilli(w.LoginTime).UTC(),
	}, nil
}

// JSON stores the record as plain JSON.
type JSON struct{}

func (JSON) Encode(rec domain.SessionRecord) (string, error) {
	id := rec.Identity
	b, err := json.Marshal(wireRecord{User: &id, LoginTime: rec.LoginTime.UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", domain.ErrPersistence, err)
	}
	return string(b), nil
}

func (JSON) Decode(raw string) (domain.SessionRecord, error) {
	if absent(raw) {
		return domain.SessionRecord{}, domain.ErrNoSession
	}
	var w wireRecord
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: %v", domain.ErrDeserialization, err)
	}
	return fromWire(w)
}

// Signed stores the record as an HS256 JWT so a tampered value is rejected
// like any other malformed one.
type Signed struct {
	secret []byte
}

func NewSigned(secret string) *Signed {
	return &Signed{secret: []byte(secret)}
}

type sessionClaims struct {
	User      *domain.Identity `json:"user"`
	LoginTime int64            `json:"login_time"`
	jwt.RegisteredClaims
}

func (s *Signed) Encode(rec domain.SessionRecord) (string, error) {
	id := rec.Identity
	claims := sessionClaims{
		User:      &id,
		LoginTime: rec.LoginTime.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.Username,
			IssuedAt: jwt.NewNumericDate(rec.LoginTime),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign: %v", domain.ErrPersistence, err)
	}
	return signed, nil
}

func (s *Signed) Decode(raw string) (domain.SessionRecord, error) {
	if absent(raw) {
		return domain.SessionRecord{}, domain.ErrNoSession
	}
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return domain.SessionRecord{}, fmt.Errorf("%w: %v", domain.ErrDeserialization, err)
	}
	return fromWire(wireRecord{User: claims.User, LoginTime: claims.LoginTime})
}
