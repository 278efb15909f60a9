package upgrade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/metrics"
)

// SweepActor is recorded as the actor of plan changes made by the expiry sweep.
const SweepActor = "system:upgrade-sweep"

// DefaultSweepInterval is used by Run when given a non-positive interval.
const DefaultSweepInterval = time.Hour

// PlanGranter assigns plans. *access.Gate satisfies it.
type PlanGranter interface {
	GrantPlan(ctx context.Context, subject string, plan access.Plan, actor string, expiresAt *time.Time) error
}

// Notifier announces new requests to admins.
type Notifier interface {
	NotifyUpgradeRequest(ctx context.Context, r *Request) error
}

// Service runs the upgrade request workflow.
type Service struct {
	store         *Store
	grants        PlanGranter
	notifier      Notifier
	metrics       *metrics.Metrics
	defaultMonths int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates the service. notifier and m may be nil.
func NewService(st *Store, grants PlanGranter, notifier Notifier, m *metrics.Metrics, defaultMonths int, logger zerolog.Logger) *Service {
	if defaultMonths <= 0 {
		defaultMonths = 1
	}
	return &Service{
		store:         st,
		grants:        grants,
		notifier:      notifier,
		metrics:       m,
		defaultMonths: defaultMonths,
		logger:        logger.With().Str("component", "upgrade").Logger(),
		now:           time.Now,
	}
}

// Request files a request for plan on behalf of subject.
// A notification failure is logged; the request stands.
func (s *Service) Request(ctx context.Context, subject string, plan access.Plan) (*Request, error) {
	if !Requestable(plan) {
		return nil, fmt.Errorf("plan %q cannot be requested: %w", plan, perrors.ErrInvalidInput)
	}
	r, err := s.store.Create(ctx, subject, plan, s.now())
	if err != nil {
		return nil, err
	}
	s.record("request", plan)
	s.refreshPending(ctx)

	if s.notifier != nil {
		if err := s.notifier.NotifyUpgradeRequest(ctx, r); err != nil {
			s.logger.Warn().Err(err).Str("request_id", r.ID).Msg("failed to notify admins")
		}
	}

	s.logger.Info().
		Str("request_id", r.ID).
		Str("subject", subject).
		Str("plan", string(plan)).
		Msg("upgrade requested")
	return r, nil
}

// List returns requests filtered by status and subject; empty filters match all.
func (s *Service) List(ctx context.Context, status Status, subject string) ([]*Request, error) {
	return s.store.List(ctx, status, subject)
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	return s.store.Get(ctx, id)
}

// Approve grants the requested plan until now plus months. months <= 0 uses the default.
func (s *Service) Approve(ctx context.Context, id, admin string, months int, notes string) (*Request, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, fmt.Errorf("request %s is %s: %w", id, r.Status, perrors.ErrInvalidInput)
	}

	now := s.now()
	expires := now.AddDate(0, s.months(months), 0)
	if err := s.grants.GrantPlan(ctx, r.UserID, r.RequestedPlan, admin, &expires); err != nil {
		return nil, err
	}

	r.Status = StatusApproved
	r.ExpiresAt = &expires
	r.ReviewedBy = admin
	r.AdminNotes = strings.TrimSpace(notes)
	r.UpdatedAt = now
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	s.record("approve", r.RequestedPlan)
	s.refreshPending(ctx)

	s.logger.Info().
		Str("request_id", id).
		Str("subject", r.UserID).
		Str("plan", string(r.RequestedPlan)).
		Str("admin", admin).
		Time("expires_at", expires).
		Msg("upgrade approved")
	return r, nil
}

// Reject closes a pending request without granting anything.
func (s *Service) Reject(ctx context.Context, id, admin, notes string) (*Request, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, fmt.Errorf("request %s is %s: %w", id, r.Status, perrors.ErrInvalidInput)
	}

	r.Status = StatusRejected
	r.ReviewedBy = admin
	r.AdminNotes = strings.TrimSpace(notes)
	r.UpdatedAt = s.now()
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	s.record("reject", r.RequestedPlan)
	s.refreshPending(ctx)

	s.logger.Info().Str("request_id", id).Str("admin", admin).Msg("upgrade rejected")
	return r, nil
}

// Extend pushes an approved request's expiry out by months, counting from the current
// expiry or from now if that has already passed.
func (s *Service) Extend(ctx context.Context, id, admin string, months int) (*Request, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusApproved {
		return nil, fmt.Errorf("request %s is %s: %w", id, r.Status, perrors.ErrInvalidInput)
	}

	now := s.now()
	base := now
	if r.ExpiresAt != nil && r.ExpiresAt.After(now) {
		base = *r.ExpiresAt
	}
	expires := base.AddDate(0, s.months(months), 0)
	if err := s.grants.GrantPlan(ctx, r.UserID, r.RequestedPlan, admin, &expires); err != nil {
		return nil, err
	}

	r.ExpiresAt = &expires
	r.ReviewedBy = admin
	r.UpdatedAt = now
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	s.record("extend", r.RequestedPlan)

	s.logger.Info().Str("request_id", id).Time("expires_at", expires).Msg("upgrade extended")
	return r, nil
}

// Sweep expires approved requests past their expiry and returns their subjects to the
// free plan. It returns the number of requests expired.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.Expired(ctx, now)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range expired {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		if err := s.grants.GrantPlan(ctx, r.UserID, access.PlanFree, SweepActor, nil); err != nil {
			s.logger.Error().Err(err).Str("request_id", r.ID).Str("subject", r.UserID).Msg("failed to downgrade")
			continue
		}
		r.Status = StatusExpired
		r.UpdatedAt = now
		if err := s.store.Update(ctx, r); err != nil {
			s.logger.Error().Err(err).Str("request_id", r.ID).Msg("failed to mark request expired")
			continue
		}
		s.record("expire", r.RequestedPlan)
		n++

		s.logger.Info().Str("request_id", r.ID).Str("subject", r.UserID).Msg("upgrade expired")
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Warn().Dur("interval", interval).Msg("non-positive sweep interval, using default")
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("upgrade sweep started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("upgrade sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("upgrade sweep failed")
			}
		}
	}
}

func (s *Service) months(m int) int {
	if m <= 0 {
		return s.defaultMonths
	}
	return m
}

func (s *Service) record(action string, plan access.Plan) {
	if s.metrics != nil {
		s.metrics.RecordUpgrade(action, string(plan))
	}
}

func (s *Service) refreshPending(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.CountPending(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count pending requests")
		return
	}
	s.metrics.SetPendingUpgrades(float64(n))
}
