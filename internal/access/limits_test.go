package access

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grantsOf(features ...Feature) []Grant {
	out := make([]Grant, 0, len(features))
	for _, f := range features {
		out = append(out, Grant{Feature: f, Enabled: true})
	}
	return out
}

func TestDerive_Defaults(t *testing.T) {
	l := Derive(nil, time.Now())
	assert.Equal(t, Limits{
		MaxProjects:    1,
		MaxAICredits:   50,
		MaxTeamMembers: 0,
		Export:         ExportNone,
		MaxPhase:       1,
		MaxStorage:     50 * MB,
	}, l)
}

func TestDerive_MostGenerousWins(t *testing.T) {
	now := time.Now()
	l := Derive(grantsOf(
		FeatureMaxProjects3, FeatureUnlimitedProjects,
		FeatureAICredits50, FeatureAICredits2000,
		FeatureTeam2, FeatureTeam10,
		FeatureExportBasic, FeatureExportAdvanced,
		FeaturePhase5Limit,
		FeatureStorage500MB, FeatureStorage5GB,
	), now)

	assert.Equal(t, Unlimited, l.MaxProjects)
	assert.Equal(t, int64(2000), l.MaxAICredits)
	assert.Equal(t, int64(10), l.MaxTeamMembers)
	assert.Equal(t, ExportAdvanced, l.Export)
	assert.Equal(t, int64(5), l.MaxPhase)
	assert.Equal(t, 5*GB, l.MaxStorage)
}

func TestDerive_PlanFeatureSets(t *testing.T) {
	now := time.Now()
	cases := map[Plan]Limits{
		PlanFree:       {MaxProjects: 1, MaxAICredits: 50, MaxTeamMembers: 0, Export: ExportNone, MaxPhase: 1, MaxStorage: 50 * MB},
		PlanStarter:    {MaxProjects: 3, MaxAICredits: 500, MaxTeamMembers: 2, Export: ExportBasic, MaxPhase: 8, MaxStorage: 500 * MB},
		PlanPro:        {MaxProjects: Unlimited, MaxAICredits: 2000, MaxTeamMembers: 10, Export: ExportAdvanced, MaxPhase: 8, MaxStorage: 5 * GB},
		PlanEnterprise: {MaxProjects: Unlimited, MaxAICredits: Unlimited, MaxTeamMembers: Unlimited, Export: ExportAdvanced, MaxPhase: 8, MaxStorage: Unlimited},
	}
	for plan, want := range cases {
		grants := grantsOf(plan.Features()...)
		assert.Equal(t, want, Derive(grants, now), "plan %s", plan)
		assert.Equal(t, plan, PlanLabel(grants, now), "plan %s", plan)
	}
}

func TestDerive_Phase3LimitIsNeverRead(t *testing.T) {
	now := time.Now()
	assert.Equal(t, Derive(nil, now), Derive(grantsOf(FeaturePhase3Limit), now))
	assert.Contains(t, UnreachableFeatures(), FeaturePhase3Limit)
}

func TestDerive_IgnoresDisabledAndExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	grants := []Grant{
		{Feature: FeatureUnlimitedProjects, Enabled: false},
		{Feature: FeatureAICredits2000, Enabled: true, ExpiresAt: &past},
		{Feature: FeatureTeam10, Enabled: true, ExpiresAt: &future},
	}
	l := Derive(grants, now)
	assert.Equal(t, int64(1), l.MaxProjects)
	assert.Equal(t, int64(50), l.MaxAICredits)
	assert.Equal(t, int64(10), l.MaxTeamMembers)
	assert.Equal(t, PlanFree, PlanLabel(grants, now))
}

func TestPlanLabel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, PlanEnterprise, PlanLabel(grantsOf(FeatureUnlimitedAI, FeatureUnlimitedProjects), now))
	assert.Equal(t, PlanPro, PlanLabel(grantsOf(FeatureUnlimitedProjects), now))
	assert.Equal(t, PlanPro, PlanLabel(grantsOf(FeatureUnlimitedProjects, FeatureMaxProjects3), now))
	assert.Equal(t, PlanStarter, PlanLabel(grantsOf(FeatureMaxProjects3, FeatureUnlimitedAI), now))
	assert.Equal(t, PlanFree, PlanLabel(grantsOf(FeatureUnlimitedAI), now))
	assert.Equal(t, PlanFree, PlanLabel(nil, now))
}

func TestCheck_ThreeProjectGrant(t *testing.T) {
	l := Derive(grantsOf(FeatureMaxProjects3), time.Now())

	d := l.Check(KindProjects, 3)
	assert.False(t, d.Allowed)
	assert.Equal(t, Decision{Allowed: false, Kind: KindProjects, Current: 3, Max: 3}, d)

	d = l.Check(KindProjects, 2)
	assert.True(t, d.Allowed)
}

func TestCheck_Kinds(t *testing.T) {
	l := Derive(grantsOf(PlanStarter.Features()...), time.Now())

	assert.True(t, l.Check(KindAIMessages, 499).Allowed)
	assert.False(t, l.Check(KindAIMessages, 500).Allowed)
	assert.True(t, l.Check(KindTeamMembers, 1).Allowed)
	assert.False(t, l.Check(KindTeamMembers, 2).Allowed)
	assert.True(t, l.Check(KindPhase, 8).Allowed)
	assert.True(t, l.Check(KindExport, int64(ExportBasic)).Allowed)
	assert.False(t, l.Check(KindExport, int64(ExportAdvanced)).Allowed)
	assert.True(t, l.Check(KindStorage, 500*MB-1).Allowed)
	assert.False(t, l.Check(KindStorage, 500*MB).Allowed)

	free := Derive(nil, time.Now())
	assert.True(t, free.Check(KindPhase, 1).Allowed)
	assert.False(t, free.Check(KindPhase, 2).Allowed)
	assert.False(t, free.Check(KindTeamMembers, 0).Allowed)
	assert.False(t, free.Check(KindExport, int64(ExportBasic)).Allowed)

	unlimited := Derive(grantsOf(PlanEnterprise.Features()...), time.Now())
	assert.True(t, unlimited.Check(KindAIMessages, 1_000_000).Allowed)
	assert.True(t, unlimited.Check(KindProjects, 1_000_000).Allowed)
}

// atLeast reports whether ceiling a is at least as generous as b.
func atLeast(a, b int64) bool {
	if a == Unlimited {
		return true
	}
	if b == Unlimited {
		return false
	}
	return a >= b
}

func TestDerive_UnlimitedNeverLowersCeiling(t *testing.T) {
	now := time.Now()
	rng := rand.New(rand.NewSource(42))

	unlimited := map[Kind]Feature{
		KindProjects:    FeatureUnlimitedProjects,
		KindAIMessages:  FeatureUnlimitedAI,
		KindTeamMembers: FeatureTeamUnlimited,
		KindStorage:     FeatureStorageUnlimited,
	}

	for i := 0; i < 500; i++ {
		var features []Feature
		for _, f := range AllFeatures {
			if rng.Intn(3) == 0 {
				features = append(features, f)
			}
		}
		base := Derive(grantsOf(features...), now)

		for kind, f := range unlimited {
			with := Derive(grantsOf(append(append([]Feature{}, features...), f)...), now)
			require.True(t, atLeast(with.Ceiling(kind), base.Ceiling(kind)),
				"kind %s: %d < %d with features %v", kind, with.Ceiling(kind), base.Ceiling(kind), features)
			assert.Equal(t, Unlimited, with.Ceiling(kind))
		}
	}
}

func TestParse(t *testing.T) {
	_, err := ParseFeature("unlimited_ai")
	assert.NoError(t, err)
	_, err = ParseFeature("unlimited_everything")
	assert.Error(t, err)

	p, err := ParsePlan("pro")
	require.NoError(t, err)
	assert.Equal(t, PlanPro, p)
	_, err = ParsePlan("platinum")
	assert.Error(t, err)

	k, err := ParseKind("ai_messages")
	require.NoError(t, err)
	assert.Equal(t, KindAIMessages, k)
	_, err = ParseKind("bananas")
	assert.Error(t, err)
}
