// Package events holds session event sinks that need no broker.
package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/ports"
)

// LogPublisher writes session events to the structured log. It is used when
// no broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event ports.SessionEvent) error {
	p.log.Info().
		Str("event", string(event.Type)).
		Int64("identity_id", event.IdentityID).
		Str("username", event.Username).
		Time("at", event.At).
		Msg("session event")
	return nil
}
