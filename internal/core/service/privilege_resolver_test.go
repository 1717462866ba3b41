package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

func TestPrivilegeResolver_Fetch(t *testing.T) {
	b := newStubBackend()
	b.privileges[2] = domain.PrivilegeSet{"/settings": true}
	r := NewPrivilegeResolver(b, zerolog.Nop())

	set := r.Fetch(context.Background(), 2)
	if !set.Allows("/settings") {
		t.Fatalf("expected /settings granted, got %v", set)
	}
	if got := r.Fetch(context.Background(), 99); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil set for unknown identity, got %v", got)
	}
}

func TestPrivilegeResolver_FailsClosed(t *testing.T) {
	errs := []error{
		domain.ErrBackendUnavailable,
		fmt.Errorf("fetch: %w", domain.ErrDeserialization),
		context.DeadlineExceeded,
		errors.New("boom"),
	}
	for _, err := range errs {
		b := newStubBackend()
		b.privileges[2] = domain.PrivilegeSet{"/settings": true}
		b.privErr = err
		r := NewPrivilegeResolver(b, zerolog.Nop())

		set := r.Fetch(context.Background(), 2)
		if set == nil || len(set) != 0 {
			t.Fatalf("expected empty set for %v, got %v", err, set)
		}
	}
}

func TestFetchFailureReason(t *testing.T) {
	cases := map[error]string{
		domain.ErrBackendUnavailable:                   "unavailable",
		context.Canceled:                               "unavailable",
		fmt.Errorf("x: %w", domain.ErrDeserialization): "malformed",
		errors.New("other"):                            "other",
	}
	for err, want := range cases {
		if got := fetchFailureReason(err); got != want {
			t.Fatalf("fetchFailureReason(%v) = %q, want %q", err, got, want)
		}
	}
}
