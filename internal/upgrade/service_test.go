package upgrade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/metrics"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

type recordingNotifier struct {
	notified []*Request
	err      error
}

func (n *recordingNotifier) NotifyUpgradeRequest(_ context.Context, r *Request) error {
	n.notified = append(n.notified, r)
	return n.err
}

type testEnv struct {
	svc      *Service
	gate     *access.Gate
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	ds, err := store.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	gate := access.NewGate(access.NewSQLiteGrantStore(ds, logger), access.NewAuditLog(ds, logger), logger)
	n := &recordingNotifier{}
	m := metrics.New()
	return &testEnv{
		svc:      NewService(NewStore(ds, logger), gate, n, m, 1, logger),
		gate:     gate,
		notifier: n,
		metrics:  m,
	}
}

func TestRequest(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	r, err := env.svc.Request(ctx, "U1", access.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	require.Len(t, env.notifier.notified, 1)
	assert.Equal(t, r.ID, env.notifier.notified[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.PendingUpgrades))

	_, err = env.svc.Request(ctx, "U1", access.PlanEnterprise)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput, "one pending request per subject")

	_, err = env.svc.Request(ctx, "U2", access.PlanStarter)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestRequest_NotifyFailureIsNotFatal(t *testing.T) {
	env := setup(t)
	env.notifier.err = errors.New("slack down")

	r, err := env.svc.Request(context.Background(), "U1", access.PlanPro)
	require.NoError(t, err)

	got, err := env.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestApprove_GrantsPlanWithExpiry(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now()
	env.svc.now = func() time.Time { return now }

	r, err := env.svc.Request(ctx, "U1", access.PlanPro)
	require.NoError(t, err)

	r, err = env.svc.Approve(ctx, r.ID, "admin", 2, "  welcome ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, r.Status)
	assert.Equal(t, "welcome", r.AdminNotes)
	require.NotNil(t, r.ExpiresAt)
	assert.True(t, r.ExpiresAt.Equal(now.AddDate(0, 2, 0)))

	got, err := env.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.ReviewedBy)
	assert.Equal(t, r.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())

	st, err := env.gate.Status(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, access.PlanPro, st.Plan)

	_, err = env.svc.Approve(ctx, r.ID, "admin", 1, "")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput, "already approved")
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.PendingUpgrades))
}

func TestReject(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	r, err := env.svc.Request(ctx, "U1", access.PlanEnterprise)
	require.NoError(t, err)
	r, err = env.svc.Reject(ctx, r.ID, "admin", "not yet")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, r.Status)

	list, err := env.svc.List(ctx, StatusRejected, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "not yet", list[0].AdminNotes)

	_, err = env.svc.Extend(ctx, r.ID, "admin", 1)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, err = env.svc.Reject(ctx, "missing", "admin", "")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestExtend_FromCurrentExpiry(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return now }

	r, err := env.svc.Request(ctx, "U1", access.PlanPro)
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, r.ID, "admin", 0, "")
	require.NoError(t, err)

	r, err = env.svc.Extend(ctx, r.ID, "admin", 3)
	require.NoError(t, err)
	assert.True(t, r.ExpiresAt.Equal(now.AddDate(0, 4, 0)))
}

func TestSweep_ExpiresAndDowngrades(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	now := time.Now()
	env.svc.now = func() time.Time { return now }

	r, err := env.svc.Request(ctx, "U1", access.PlanPro)
	require.NoError(t, err)
	_, err = env.svc.Approve(ctx, r.ID, "admin", 1, "")
	require.NoError(t, err)

	n, err := env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "not expired yet")

	env.svc.now = func() time.Time { return now.AddDate(0, 2, 0) }
	n, err = env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	st, err := env.gate.Status(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, access.PlanFree, st.Plan)

	n, err = env.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList_Filters(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.svc.Request(ctx, "U1", access.PlanPro)
	require.NoError(t, err)
	_, err = env.svc.Request(ctx, "U2", access.PlanEnterprise)
	require.NoError(t, err)

	all, err := env.svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.svc.List(ctx, StatusPending, "U2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, access.PlanEnterprise, mine[0].RequestedPlan)
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, st)
	_, ok = ParseStatus("bogus")
	assert.False(t, ok)
}

func TestRun_NonPositiveIntervalFallsBack(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NotPanics(t, func() { env.svc.Run(ctx, 0) })
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
