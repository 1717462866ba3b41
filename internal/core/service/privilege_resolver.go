package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/pkg/metrics"
)

// PrivilegeFetcher is the backend call the resolver wraps.
type PrivilegeFetcher interface {
	FetchPrivileges(ctx context.Context, identityID int64) (domain.PrivilegeSet, error)
}

// PrivilegeResolver fetches an identity's privilege set and fails closed.
type PrivilegeResolver struct {
	fetcher PrivilegeFetcher
	log     zerolog.Logger
}

func NewPrivilegeResolver(fetcher PrivilegeFetcher, log zerolog.Logger) *PrivilegeResolver {
	return &PrivilegeResolver{fetcher: fetcher, log: log}
}

// Fetch never returns an error: any failure yields an empty set.
func (r *PrivilegeResolver) Fetch(ctx context.Context, identityID int64) domain.PrivilegeSet {
	set, err := r.fetcher.FetchPrivileges(ctx, identityID)
	if err != nil {
		reason := fetchFailureReason(err)
		metrics.PrivilegeFetchFailuresTotal.WithLabelValues(reason).Inc()
		r.log.Warn().
			Err(err).
			Int64("identity_id", identityID).
			Str("reason", reason).
			Msg("privilege fetch failed, using empty set")
		return domain.PrivilegeSet{}
	}
	return set.Clone()
}

func fetchFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "unavailable"
	case errors.Is(err, domain.ErrDeserialization):
		return "malformed"
	default:
		return "other"
	}
}
