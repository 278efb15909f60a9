package access

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

func newTestGate(t *testing.T) (*Gate, *SQLiteGrantStore, *AuditLog) {
	t.Helper()
	ds, err := store.New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	grants := NewSQLiteGrantStore(ds, zerolog.Nop())
	audit := NewAuditLog(ds, zerolog.Nop())
	return NewGate(grants, audit, zerolog.Nop()), grants, audit
}

func enabledFeatures(t *testing.T, gs GrantStore, subject string) []Feature {
	t.Helper()
	grants, err := gs.ListGrants(context.Background(), subject)
	require.NoError(t, err)
	var out []Feature
	for _, g := range grants {
		if g.Enabled {
			out = append(out, g.Feature)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sorted(fs []Feature) []Feature {
	out := append([]Feature{}, fs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestGrantPlan_LeavesExactlyThePlanEnabled(t *testing.T) {
	gate, gs, _ := newTestGate(t)
	ctx := context.Background()

	for _, from := range Plans {
		for _, to := range Plans {
			subject := "user-" + string(from) + "-" + string(to)
			require.NoError(t, gate.GrantPlan(ctx, subject, from, "admin", nil))
			require.NoError(t, gate.SetFeature(ctx, subject, FeatureUnlimitedAI, true, "admin", "bonus", nil))
			require.NoError(t, gate.GrantPlan(ctx, subject, to, "admin", nil))

			assert.Equal(t, sorted(to.Features()), enabledFeatures(t, gs, subject), "%s -> %s", from, to)

			st, err := gate.Status(ctx, subject)
			require.NoError(t, err)
			assert.Equal(t, to, st.Plan, "%s -> %s", from, to)
		}
	}
}

func TestGrantPlan_DisablesRatherThanDeletes(t *testing.T) {
	gate, gs, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanEnterprise, "admin", nil))
	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanFree, "admin", nil))

	grants, err := gs.ListGrants(ctx, "u1")
	require.NoError(t, err)

	byFeature := map[Feature]Grant{}
	for _, g := range grants {
		byFeature[g.Feature] = g
	}
	require.Contains(t, byFeature, FeatureUnlimitedAI)
	assert.False(t, byFeature[FeatureUnlimitedAI].Enabled)
	assert.True(t, byFeature[FeatureMaxProjects1].Enabled)
}

func TestGrantPlan_WithExpiry(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanPro, "admin", &past))

	st, err := gate.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanFree, st.Plan)
	assert.Equal(t, int64(1), st.Limits.MaxProjects)

	future := time.Now().Add(time.Hour)
	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanPro, "admin", &future))
	st, err = gate.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanPro, st.Plan)
	for _, g := range st.Grants {
		if g.Enabled {
			require.NotNil(t, g.ExpiresAt)
			assert.Equal(t, future.UnixMilli(), g.ExpiresAt.UnixMilli())
		}
	}
}

func TestGate_CheckLimitRereadsGrants(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, gate.SetFeature(ctx, "u1", FeatureMaxProjects3, true, "admin", "", nil))

	d, err := gate.CheckLimit(ctx, "u1", KindProjects, 3)
	require.NoError(t, err)
	assert.Equal(t, Decision{Allowed: false, Kind: KindProjects, Current: 3, Max: 3}, d)

	d, err = gate.CheckLimit(ctx, "u1", KindProjects, 2)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	require.NoError(t, gate.SetFeature(ctx, "u1", FeatureUnlimitedProjects, true, "admin", "", nil))
	d, err = gate.CheckLimit(ctx, "u1", KindProjects, 3)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, Unlimited, d.Max)
}

func TestGate_RevokeAll(t *testing.T) {
	gate, gs, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanPro, "admin", nil))
	require.NoError(t, gate.RevokeAll(ctx, "u1", "admin"))
	assert.Empty(t, enabledFeatures(t, gs, "u1"))
}

func TestGate_RejectsUnknownPlanAndFeature(t *testing.T) {
	gate, _, _ := newTestGate(t)
	ctx := context.Background()

	err := gate.GrantPlan(ctx, "u1", Plan("platinum"), "admin", nil)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	err = gate.SetFeature(ctx, "u1", Feature("free_lunch"), true, "admin", "", nil)
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestGate_AuditTrail(t *testing.T) {
	gate, _, audit := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, gate.GrantPlan(ctx, "u1", PlanStarter, "admin", nil))
	require.NoError(t, gate.SetFeature(ctx, "u1", FeatureTeam10, true, "admin", "", nil))
	require.NoError(t, gate.SetFeature(ctx, "u1", FeatureTeam10, false, "admin", "", nil))
	require.NoError(t, gate.RevokeAll(ctx, "u1", "admin"))
	require.NoError(t, gate.GrantPlan(ctx, "u2", PlanPro, "admin", nil))

	entries, err := audit.List(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	actions := []string{}
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{ActionRevokeAllFeatures, ActionRevokeFeature, ActionGrantFeature, ActionGrantPlan}, actions)
	assert.Equal(t, "starter", entries[3].Details["plan"])

	all, err := audit.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

type failingGrants struct {
	GrantStore
}

func (failingGrants) ReplaceGrants(context.Context, string, []Feature, *time.Time, string) error {
	return errors.New("disk full")
}

type failingAudit struct{ calls int }

func (f *failingAudit) Record(context.Context, AuditEntry) error {
	f.calls++
	return errors.New("audit down")
}

func TestGrantPlan_StorageFailureIsHard(t *testing.T) {
	audit := &failingAudit{}
	gate := NewGate(failingGrants{}, audit, zerolog.Nop())

	err := gate.GrantPlan(context.Background(), "u1", PlanPro, "admin", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrGrantSwap)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, audit.calls)
}

func TestGate_AuditFailureIsNotReturned(t *testing.T) {
	_, gs, _ := newTestGate(t)
	audit := &failingAudit{}
	gate := NewGate(gs, audit, zerolog.Nop())

	require.NoError(t, gate.GrantPlan(context.Background(), "u1", PlanPro, "admin", nil))
	assert.Equal(t, 1, audit.calls)
}
