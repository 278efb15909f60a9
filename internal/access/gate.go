package access

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

// Auditor records administrative actions. Failures are logged by the Gate, never returned.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Gate evaluates actions against a subject's current grants.
// Grants are re-read on every call so expired grants drop out without a sweep.
type Gate struct {
	grants GrantStore
	audit  Auditor
	logger zerolog.Logger
	now    func() time.Time
}

// NewGate creates a gate. audit may be nil.
func NewGate(grants GrantStore, audit Auditor, logger zerolog.Logger) *Gate {
	return &Gate{
		grants: grants,
		audit:  audit,
		logger: logger.With().Str("component", "access.gate").Logger(),
		now:    time.Now,
	}
}

// Status is a subject's grants with the derived limits and plan label.
type Status struct {
	Subject string  `json:"subject"`
	Plan    Plan    `json:"plan"`
	Limits  Limits  `json:"limits"`
	Grants  []Grant `json:"grants"`
}

// Status reads the subject's grants and derives its limits.
func (g *Gate) Status(ctx context.Context, subject string) (*Status, error) {
	grants, err := g.grants.ListGrants(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to read grants for %s: %w", subject, err)
	}
	now := g.now()
	return &Status{
		Subject: subject,
		Plan:    PlanLabel(grants, now),
		Limits:  Derive(grants, now),
		Grants:  grants,
	}, nil
}

// Limits returns the subject's derived limits.
func (g *Gate) Limits(ctx context.Context, subject string) (Limits, error) {
	st, err := g.Status(ctx, subject)
	if err != nil {
		return Limits{}, err
	}
	return st.Limits, nil
}

// CheckLimit evaluates current usage of kind for subject.
func (g *Gate) CheckLimit(ctx context.Context, subject string, kind Kind, current int64) (Decision, error) {
	limits, err := g.Limits(ctx, subject)
	if err != nil {
		return Decision{}, err
	}
	d := limits.Check(kind, current)
	if !d.Allowed {
		g.logger.Info().
			Str("subject", subject).
			Str("kind", string(kind)).
			Int64("current", d.Current).
			Int64("max", d.Max).
			Msg("limit reached")
	}
	return d, nil
}

// GrantPlan replaces the subject's grants with the plan's feature set.
// A storage failure leaves the previous grants untouched and returns ErrGrantSwap.
func (g *Gate) GrantPlan(ctx context.Context, subject string, plan Plan, actor string, expiresAt *time.Time) error {
	if _, err := ParsePlan(string(plan)); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrInvalidInput, err)
	}

	if err := g.grants.ReplaceGrants(ctx, subject, plan.Features(), expiresAt, actor); err != nil {
		g.logger.Error().Err(err).
			Str("subject", subject).
			Str("plan", string(plan)).
			Msg("plan swap failed")
		return fmt.Errorf("%w: plan %s for %s: %w", perrors.ErrGrantSwap, plan, subject, err)
	}

	details := map[string]any{"plan": string(plan)}
	if expiresAt != nil {
		details["expires_at"] = expiresAt.UTC().Format(time.RFC3339)
	}
	g.record(ctx, AuditEntry{Actor: actor, Action: ActionGrantPlan, Subject: subject, Details: details})
	return nil
}

// SetFeature enables or disables a single feature.
func (g *Gate) SetFeature(ctx context.Context, subject string, feature Feature, enabled bool, actor, notes string, expiresAt *time.Time) error {
	if _, err := ParseFeature(string(feature)); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrInvalidInput, err)
	}

	err := g.grants.SetGrants(ctx, subject, []GrantUpdate{{
		Feature:   feature,
		Enabled:   enabled,
		ExpiresAt: expiresAt,
		Actor:     actor,
		Notes:     notes,
	}})
	if err != nil {
		return fmt.Errorf("failed to set %s for %s: %w", feature, subject, err)
	}

	action := ActionGrantFeature
	if !enabled {
		action = ActionRevokeFeature
	}
	g.record(ctx, AuditEntry{Actor: actor, Action: action, Subject: subject, Details: map[string]any{"feature": string(feature)}})
	return nil
}

// RevokeAll disables every grant the subject holds.
func (g *Gate) RevokeAll(ctx context.Context, subject, actor string) error {
	if err := g.grants.ReplaceGrants(ctx, subject, nil, nil, actor); err != nil {
		return fmt.Errorf("%w: revoke all for %s: %w", perrors.ErrGrantSwap, subject, err)
	}
	g.record(ctx, AuditEntry{Actor: actor, Action: ActionRevokeAllFeatures, Subject: subject})
	return nil
}

func (g *Gate) record(ctx context.Context, entry AuditEntry) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Record(ctx, entry); err != nil {
		g.logger.Warn().Err(err).
			Str("action", entry.Action).
			Str("subject", entry.Subject).
			Msg("failed to record audit entry")
	}
}
