// Package metrics defines and registers the custom Prometheus metrics of the
// dashboard gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry at package init via
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qa_dashboard"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" (bad credentials), "malformed" (unusable
//     backend reply), "error" (transport or persistence failure)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsEndedTotal counts transitions from logged-in to logged-out.
// Label:
//   - reason: "logout", "expired", "login_failed", "invalid"
var SessionsEndedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Total number of sessions ended, by reason.",
	},
	[]string{"reason"},
)

// SessionActive is 1 while an identity is logged in.
var SessionActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_active",
		Help:      "Whether an identity is currently logged in (0 or 1).",
	},
)

// ── Privilege metrics ─────────────────────────────────────────────────────────

// PrivilegeFetchFailuresTotal counts privilege fetches that fell back to the
// empty set.
// Label:
//   - reason: "unavailable", "malformed", "other"
var PrivilegeFetchFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "privilege_fetch_failures_total",
		Help:      "Total number of privilege fetches that failed closed.",
	},
	[]string{"reason"},
)

// StalePrivilegeResponsesTotal counts privilege replies discarded because the
// session they belonged to had already ended or been replaced.
var StalePrivilegeResponsesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_privilege_responses_total",
		Help:      "Total number of privilege responses discarded as stale.",
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - path: the guarded tab path
//   - decision: "allow", "redirect_login", "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by path and outcome.",
	},
	[]string{"path", "decision"},
)
